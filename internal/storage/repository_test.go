package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ledger/internal/core"
	"ledger/internal/store"
)

var _ store.Repository = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.Create(ctx, core.CreateRequest{
		Date:        "2025-04-01",
		Card:        "Visa",
		Amount:      4599,
		Currency:    "EUR",
		Description: "Groceries",
		Category:    "Food",
		Comment:     "weekly",
		IsIncome:    false,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("find: %+v err=%v", got, err)
	}
	if got.Description != "Groceries" || got.Amount != 4599 || got.Comment != "weekly" || got.Currency != "EUR" {
		t.Fatalf("unexpected row %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt %v, want %v", got.CreatedAt, created.CreatedAt)
	}

	missing, err := repo.FindByID(ctx, "missing")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing id, got %+v err=%v", missing, err)
	}
}

func TestSQLiteCreateRejectsNegativeAmount(t *testing.T) {
	_, err := newTestRepo(t).Create(context.Background(), core.CreateRequest{Date: "2025-04-01", Amount: -5})
	if !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestSQLiteFindAllFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	reqs := []core.CreateRequest{
		{Date: "2025-01-15", Card: "Visa", Amount: 100, Category: "Food"},
		{Date: "2025-12-10", Card: "Visa", Amount: 200, Category: "Gifts"},
		{Date: "2026-01-20", Card: "Amex", Amount: 300, Category: "Food"},
	}
	var ids []string
	for _, r := range reqs {
		tr, err := repo.Create(ctx, r)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, tr.ID)
	}

	all, err := repo.FindAll(ctx, nil)
	if err != nil || len(all) != 3 || all[0].ID != ids[0] || all[2].ID != ids[2] {
		t.Fatalf("nil filter should return insertion order: %+v err=%v", all, err)
	}

	winter := &core.Filter{DateRange: &core.DateRange{Start: "2025-12-01", End: "2025-02-28"}}
	got, err := repo.FindAll(ctx, winter)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(got) != 2 || got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Fatalf("winter filter mismatch: %+v", got)
	}
}

func TestSQLiteUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created, _ := repo.Create(ctx, core.CreateRequest{Date: "2025-01-01", Amount: 100, Description: "old"})

	updated, err := repo.Update(ctx, created.ID, core.TransactionPatch{Description: core.String("new"), IsIncome: core.Bool(true)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Description != "new" || !updated.IsIncome || updated.Amount != 100 {
		t.Fatalf("unexpected update %+v", updated)
	}

	stored, _ := repo.FindByID(ctx, created.ID)
	if stored.Description != "new" || !stored.IsIncome {
		t.Fatalf("update not persisted: %+v", stored)
	}

	if _, err := repo.Update(ctx, "missing", core.TransactionPatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, created.ID, core.TransactionPatch{Amount: core.Int64(-1)}); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestSQLiteArchive(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created, _ := repo.Create(ctx, core.CreateRequest{Date: "2025-01-01", Amount: 100})

	archived, err := repo.SetArchived(ctx, created.ID, true)
	if err != nil || !archived.IsArchived {
		t.Fatalf("archive: %+v err=%v", archived, err)
	}
	visible, _ := repo.FindAll(ctx, &core.Filter{})
	if len(visible) != 0 {
		t.Fatalf("archived transaction should be hidden, got %+v", visible)
	}
	restored, err := repo.SetArchived(ctx, created.ID, false)
	if err != nil || restored.IsArchived {
		t.Fatalf("unarchive: %+v err=%v", restored, err)
	}
	if _, err := repo.SetArchived(ctx, "missing", true); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDeleteClearCount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	a, _ := repo.Create(ctx, core.CreateRequest{Date: "2025-01-01"})
	_, _ = repo.Create(ctx, core.CreateRequest{Date: "2025-01-02"})

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := repo.FindByID(ctx, a.ID); got != nil {
		t.Fatalf("deleted transaction still present: %+v", got)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 0 {
		t.Fatalf("count after clear = %d, want 0", n)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestSQLiteCreateMany(t *testing.T) {
	ctx := context.Background()

	t.Run("commits the whole batch", func(t *testing.T) {
		repo := newTestRepo(t)
		got, err := repo.CreateMany(ctx, []core.CreateRequest{
			{Date: "2025-05-01", Card: "Visa", Amount: 100},
			{Date: "2025-05-02", Card: "Visa", Amount: 200, IsDuplicate: true},
		})
		if err != nil {
			t.Fatalf("create many: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("created %d, want 2", len(got))
		}
		stored, err := repo.FindByID(ctx, got[1].ID)
		if err != nil || stored == nil || !stored.IsDuplicate {
			t.Fatalf("unexpected stored row %+v err=%v", stored, err)
		}
	})

	t.Run("invalid request inserts nothing", func(t *testing.T) {
		repo := newTestRepo(t)
		_, err := repo.CreateMany(ctx, []core.CreateRequest{
			{Date: "2025-05-01", Amount: 100},
			{Date: "2025-05-02", Amount: -5},
		})
		if !errors.Is(err, core.ErrNegativeAmount) {
			t.Fatalf("expected ErrNegativeAmount, got %v", err)
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Fatalf("count = %d, want 0", n)
		}
	})

	t.Run("cancelled context inserts nothing", func(t *testing.T) {
		repo := newTestRepo(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := repo.CreateMany(cctx, []core.CreateRequest{{Date: "2025-05-01", Amount: 100}}); err == nil {
			t.Fatal("expected error for cancelled context")
		}
		if n, _ := repo.Count(ctx); n != 0 {
			t.Fatalf("count = %d, want 0", n)
		}
	})
}

func TestSQLiteRevisionVisibleAcrossConnections(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	server, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open server repository: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	worker, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open worker repository: %v", err)
	}
	t.Cleanup(func() { worker.Close() })

	before, err := server.Revision(ctx)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}

	created, err := worker.CreateMany(ctx, []core.CreateRequest{{Date: "2025-06-01", Amount: 700}})
	if err != nil {
		t.Fatalf("create many: %v", err)
	}
	afterInsert, _ := server.Revision(ctx)
	if afterInsert <= before {
		t.Fatalf("revision %d did not advance past %d after insert", afterInsert, before)
	}

	if _, err := worker.SetArchived(ctx, created[0].ID, true); err != nil {
		t.Fatalf("archive: %v", err)
	}
	afterArchive, _ := server.Revision(ctx)
	if afterArchive <= afterInsert {
		t.Fatalf("revision %d did not advance past %d after archive", afterArchive, afterInsert)
	}

	if err := worker.Delete(ctx, created[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	afterDelete, _ := server.Revision(ctx)
	if afterDelete <= afterArchive {
		t.Fatalf("revision %d did not advance past %d after delete", afterDelete, afterArchive)
	}
}

package memory

import (
	"context"
	"testing"

	"ledger/internal/core"
)

func TestExporterUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	e := New()

	ref, err := e.Upsert(ctx, core.Transaction{ID: "a", Amount: 1})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected upsert: ref=%q err=%v", ref, err)
	}
	ref, _ = e.Upsert(ctx, core.Transaction{ID: "b", Amount: 2})
	if ref != "mem:2" {
		t.Fatalf("ref = %q, want mem:2", ref)
	}
	ref, _ = e.Upsert(ctx, core.Transaction{ID: "a", Amount: 10})
	if ref != "mem:1" {
		t.Fatalf("upsert of existing id should reuse its row, got %q", ref)
	}

	if err := e.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := e.Remove(ctx, "missing"); err != nil {
		t.Fatalf("removing a missing row should succeed: %v", err)
	}

	rows := e.Rows()
	if len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	ref, _ = e.Upsert(ctx, core.Transaction{ID: "c"})
	if ref != "mem:3" {
		t.Fatalf("cleared rows are not reused, got %q", ref)
	}
}

func TestExporterRejectsMissingID(t *testing.T) {
	if _, err := New().Upsert(context.Background(), core.Transaction{}); err == nil {
		t.Fatal("expected error for transaction without id")
	}
}

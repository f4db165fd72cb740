// Package storage is the SQLite transaction backend. The schema is managed
// by embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/query"

	_ "modernc.org/sqlite"
)

const selectColumns = `id, date, card, amount_cents, currency, description, category, comment,
	is_income, is_archived, is_duplicate, created_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, req core.CreateRequest) (core.Transaction, error) {
	if err := req.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t := core.NewTransaction(uuid.NewString(), r.now().UTC(), req)
	if err := insertTransaction(ctx, r.db, t); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"date", t.Date,
		"amount_cents", t.Amount,
		"is_income", t.IsIncome)
	return t, nil
}

// CreateMany inserts the batch in a single SQL transaction.
func (r *SQLiteRepository) CreateMany(ctx context.Context, reqs []core.CreateRequest) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(reqs))
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("create transaction %d: %w", i, err)
		}
		out = append(out, core.NewTransaction(uuid.NewString(), r.now().UTC(), req))
	}
	if len(out) == 0 {
		return out, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	for _, t := range out {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch insert: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved to SQLite", "count", len(out))
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, t core.Transaction) error {
	_, err := db.ExecContext(ctx, `INSERT INTO transactions (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date, t.Card, t.Amount, t.Currency, t.Description, t.Category, t.Comment,
		t.IsIncome, t.IsArchived, t.IsDuplicate, t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context, filter *core.Filter) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	if filter == nil {
		return out, nil
	}
	return query.Apply(out, *filter), nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if err := patch.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	current, err := scanTransaction(tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}

	t := patch.Apply(current)
	_, err = tx.ExecContext(ctx, `UPDATE transactions SET
		date = ?, card = ?, amount_cents = ?, currency = ?, description = ?,
		category = ?, comment = ?, is_income = ?, is_duplicate = ?
		WHERE id = ?`,
		t.Date, t.Card, t.Amount, t.Currency, t.Description,
		t.Category, t.Comment, t.IsIncome, t.IsDuplicate, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) SetArchived(ctx context.Context, id string, archived bool) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET is_archived = ? WHERE id = ?`, archived, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("archive transaction %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, fmt.Errorf("archive transaction %s: %w", id, core.ErrNotFound)
	}

	t, err := r.FindByID(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if t == nil {
		return core.Transaction{}, fmt.Errorf("archive transaction %s: %w", id, core.ErrNotFound)
	}
	return *t, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.WarnContext(ctx, "All transactions cleared from SQLite", "count", n)
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Revision reads the counter maintained by the transactions triggers, so it
// also reflects writes from other processes using the same file.
func (r *SQLiteRepository) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := r.db.QueryRowContext(ctx, `SELECT revision FROM store_revision WHERE id = 1`).Scan(&rev); err != nil {
		return 0, fmt.Errorf("read store revision: %w", err)
	}
	return rev, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		createdAt string
	)
	err := s.Scan(&t.ID, &t.Date, &t.Card, &t.Amount, &t.Currency, &t.Description, &t.Category, &t.Comment,
		&t.IsIncome, &t.IsArchived, &t.IsDuplicate, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

// Package store declares the persistence contract for transactions.
package store

import (
	"context"

	"ledger/internal/core"
)

// Repository is implemented by every transaction backend. FindAll applies
// the filter, including archived exclusion and newest-first ordering, so
// all backends answer queries identically.
type Repository interface {
	Create(ctx context.Context, req core.CreateRequest) (core.Transaction, error)
	// CreateMany stores every request or none of them.
	CreateMany(ctx context.Context, reqs []core.CreateRequest) ([]core.Transaction, error)
	// FindByID returns nil and no error when the id is absent.
	FindByID(ctx context.Context, id string) (*core.Transaction, error)
	// FindAll with a nil filter returns every stored transaction, archived
	// included, in insertion order.
	FindAll(ctx context.Context, filter *core.Filter) ([]core.Transaction, error)
	// Update fails with core.ErrNotFound when the id is absent.
	Update(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error)
	// SetArchived fails with core.ErrNotFound when the id is absent.
	SetArchived(ctx context.Context, id string, archived bool) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	// Revision changes after every committed write, including writes made
	// by other processes sharing the same storage.
	Revision(ctx context.Context) (int64, error)
	Close() error
}

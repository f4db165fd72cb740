package sheets

import (
	"context"

	"ledger/internal/core"
)

// TransactionExporter mirrors stored transactions into an external sheet.
// Rows are keyed by transaction ID.
type TransactionExporter interface {
	// Upsert writes t, replacing the existing row for the same ID.
	Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)
	// Remove clears the row for id. A missing row is not an error.
	Remove(ctx context.Context, id string) error
}

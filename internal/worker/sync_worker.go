// Package worker holds the AMQP message handlers run by ledger-worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/reconcile"
	"ledger/internal/services"
	"ledger/internal/sheets"
)

// TransactionReader is the read side of services.TransactionService.
type TransactionReader interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
	List(ctx context.Context, f core.Filter) ([]core.Transaction, error)
}

// Importer is the import side of services.TransactionService.
type Importer interface {
	Import(ctx context.Context, requests []core.CreateRequest, opts reconcile.Options) (services.ImportResult, error)
}

// SyncWorker mirrors active transactions into a sheet. Archived and deleted
// transactions are removed from it.
type SyncWorker struct {
	reader   TransactionReader
	exporter sheets.TransactionExporter
}

func NewSyncWorker(reader TransactionReader, exporter sheets.TransactionExporter) *SyncWorker {
	return &SyncWorker{reader: reader, exporter: exporter}
}

// HandleEventMessage processes one transaction event from AMQP. A returned
// error causes the message to be requeued.
func (w *SyncWorker) HandleEventMessage(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event", "type", msg.Type, "id", msg.ID)

	switch msg.Type {
	case core.EventCreated, core.EventUpdated, core.EventUnarchived, core.EventImported:
		return w.export(ctx, msg.ID)
	case core.EventArchived, core.EventDeleted:
		if err := w.exporter.Remove(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove from sheet: %w", err)
		}
		slog.InfoContext(ctx, "Removed transaction from sheet", "id", msg.ID, "reason", msg.Type)
		return nil
	case core.EventCleared:
		slog.WarnContext(ctx, "Store cleared; sheet rows are kept for audit")
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", msg.Type)
		return nil
	}
}

func (w *SyncWorker) export(ctx context.Context, id string) error {
	t, err := w.reader.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before the event was consumed.
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if t.IsArchived {
		return w.exporter.Remove(ctx, id)
	}

	ref, err := w.exporter.Upsert(ctx, t)
	if err != nil {
		return fmt.Errorf("upsert to sheet: %w", err)
	}
	slog.InfoContext(ctx, "Successfully exported transaction",
		"id", t.ID,
		"sheets_ref", ref,
		"amount_cents", t.Amount)
	return nil
}

// StartupSync exports every active transaction. It recovers from events
// lost while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	txs, err := w.reader.List(ctx, core.Filter{})
	if err != nil {
		return fmt.Errorf("list transactions for startup sync: %w", err)
	}

	synced, failed := 0, 0
	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.exporter.Upsert(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup", "id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(txs),
		"synced", synced,
		"errors", failed)
	return nil
}

// ImportWorker reconciles queued import batches.
type ImportWorker struct {
	importer Importer
}

func NewImportWorker(importer Importer) *ImportWorker {
	return &ImportWorker{importer: importer}
}

// HandleImportMessage imports one batch. Invalid batches are logged and
// acknowledged since retrying cannot fix them.
func (w *ImportWorker) HandleImportMessage(ctx context.Context, msg *amqp.ImportBatchMessage) error {
	res, err := w.importer.Import(ctx, msg.Transactions, reconcile.Options{SkipDuplicates: msg.SkipDuplicates})
	if errors.Is(err, core.ErrNegativeAmount) || errors.Is(err, core.ErrEmptyDate) {
		slog.ErrorContext(ctx, "Dropping invalid import batch", "batch_id", msg.BatchID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("import batch %s: %w", msg.BatchID, err)
	}

	slog.InfoContext(ctx, "Import batch processed",
		"batch_id", msg.BatchID,
		"created", len(res.Created),
		"flagged", res.Flagged,
		"skipped", res.Skipped)
	return nil
}

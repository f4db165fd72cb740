// Package memory is an in-process TransactionExporter used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

type Exporter struct {
	mu    sync.Mutex
	rows  []core.Transaction
	index map[string]int
}

var _ ports.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{index: make(map[string]int)}
}

// Upsert returns a synthetic row reference of the form "mem:<row>".
func (e *Exporter) Upsert(_ context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		return "", errors.New("transaction without id")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.index[t.ID]; ok {
		e.rows[i] = t
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	e.rows = append(e.rows, t)
	e.index[t.ID] = len(e.rows) - 1
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Remove blanks the row so later row references stay stable, like clearing
// a sheet row.
func (e *Exporter) Remove(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i, ok := e.index[id]; ok {
		e.rows[i] = core.Transaction{}
		delete(e.index, id)
	}
	return nil
}

// Rows returns the exported transactions in row order, skipping cleared rows.
func (e *Exporter) Rows() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Transaction, 0, len(e.index))
	for _, t := range e.rows {
		if t.ID != "" {
			out = append(out, t)
		}
	}
	return out
}

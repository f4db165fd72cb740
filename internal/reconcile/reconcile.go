// Package reconcile flags incoming transactions that are probably
// re-imports of stored ones.
package reconcile

import (
	"ledger/internal/core"
)

// Options controls how a batch is reconciled.
type Options struct {
	// SkipDuplicates drops flagged requests instead of importing them.
	SkipDuplicates bool `json:"skipDuplicates"`
}

// Decision is the reconciliation outcome for one request.
type Decision struct {
	Request    core.CreateRequest
	Duplicates []string // IDs of matching stored transactions
	Skip       bool
}

// IsDuplicate reports whether candidate shares date and card with existing
// and their amounts differ by less than one minor unit.
func IsDuplicate(existing core.Transaction, candidate core.CreateRequest) bool {
	if existing.Date != candidate.Date || existing.Card != candidate.Card {
		return false
	}
	d := existing.Amount - candidate.Amount
	if d < 0 {
		d = -d
	}
	return d < 1
}

// Plan decides, for each request in order, whether it duplicates a stored
// transaction. Flagged requests get IsDuplicate set; with SkipDuplicates they
// are also marked for skipping. Requests are not compared with each other.
func Plan(existing []core.Transaction, requests []core.CreateRequest, opts Options) []Decision {
	out := make([]Decision, 0, len(requests))
	for _, req := range requests {
		d := Decision{Request: req}
		for _, t := range existing {
			if IsDuplicate(t, req) {
				d.Duplicates = append(d.Duplicates, t.ID)
			}
		}
		if len(d.Duplicates) > 0 {
			d.Request.IsDuplicate = true
			d.Skip = opts.SkipDuplicates
		}
		out = append(out, d)
	}
	return out
}

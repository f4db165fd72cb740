package query

import (
	"sort"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// DuplicateQuery describes a candidate record, typically a freshly parsed
// statement line. Amount is in minor units and may carry a fraction.
type DuplicateQuery struct {
	Date   string              `json:"date"`
	Card   string              `json:"card"`
	Amount decimal.NullDecimal `json:"amount"`
}

// Apply returns the transactions matching f, newest first. Transactions
// sharing a date keep their storage order. The input slice is not modified.
func Apply(txs []core.Transaction, f core.Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders transactions by date descending, stable on ties.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date > txs[j].Date
	})
}

// CardsForDateRange returns the distinct cards of the active transactions in
// r, ignoring every other filter dimension. A nil range means all dates.
func CardsForDateRange(txs []core.Transaction, r *core.DateRange) []string {
	return distinctInRange(txs, r, func(t core.Transaction) string { return t.Card })
}

// CategoriesForDateRange returns the distinct non-blank categories of the
// active transactions in r.
func CategoriesForDateRange(txs []core.Transaction, r *core.DateRange) []string {
	return distinctInRange(txs, r, func(t core.Transaction) string { return t.Category })
}

func distinctInRange(txs []core.Transaction, r *core.DateRange, key func(core.Transaction) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range txs {
		if t.IsArchived {
			continue
		}
		if r != nil && !InDateRange(t.Date, *r) {
			continue
		}
		v := key(t)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FindPotentialDuplicates returns the stored transactions sharing the
// candidate's date and card whose amount differs by less than one minor
// unit. A candidate missing its date, card or amount matches nothing.
func FindPotentialDuplicates(txs []core.Transaction, q DuplicateQuery) []core.Transaction {
	out := make([]core.Transaction, 0)
	if q.Date == "" || q.Card == "" || !q.Amount.Valid {
		return out
	}
	for _, t := range txs {
		if t.Date != q.Date || t.Card != q.Card {
			continue
		}
		if decimal.NewFromInt(t.Amount).Sub(q.Amount.Decimal).Abs().LessThan(decimal.NewFromInt(1)) {
			out = append(out, t)
		}
	}
	return out
}

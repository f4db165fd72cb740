// Package query filters, orders and derives facets from transaction snapshots.
//
// Everything here is a pure function over an in-memory slice; stores fetch a
// snapshot once and hand it over, so the in-memory and SQLite backends filter
// identically.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// InDateRange reports whether date falls within r. Dates are compared as
// strings: ISO dates sort lexicographically in chronological order, which
// avoids any time-zone normalisation.
//
// A range whose start and end share a year while the start month is greater
// than the end month is read as spanning into the following year, so
// {2025-12-01, 2025-02-28} covers December 2025 through February 2026.
func InDateRange(date string, r core.DateRange) bool {
	if r.Wraps() {
		return date >= r.Start && date <= shiftYear(r.End, 1)
	}
	return date >= r.Start && date <= r.End
}

// shiftYear adds n to the leading four-digit year of an ISO date string.
func shiftYear(date string, n int) string {
	if len(date) < 4 {
		return date
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return date
	}
	return fmt.Sprintf("%04d", y+n) + date[4:]
}

// Matches reports whether t satisfies every constraint present in f.
// Archived transactions never match unless f.IncludeArchived is set.
func Matches(t core.Transaction, f core.Filter) bool {
	if t.IsArchived && !f.IncludeArchived {
		return false
	}
	if f.DateRange != nil && !InDateRange(t.Date, *f.DateRange) {
		return false
	}
	if len(f.Categories) > 0 {
		listed := contains(f.Categories, t.Category)
		if f.CategoriesMode.Exclude() == listed {
			return false
		}
	}
	if len(f.Cards) > 0 && !contains(f.Cards, t.Card) {
		return false
	}
	if f.IsIncome != nil && t.IsIncome != *f.IsIncome {
		return false
	}
	if f.MinAmount != nil && t.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && t.Amount > *f.MaxAmount {
		return false
	}
	if f.SearchQuery != "" && !matchesSearch(t, f.SearchQuery) {
		return false
	}
	return true
}

// matchesSearch is a case-insensitive substring match on description or comment.
func matchesSearch(t core.Transaction, q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	return t.Comment != "" && strings.Contains(strings.ToLower(t.Comment), q)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ledger/internal/core"
)

func TestIsDuplicate(t *testing.T) {
	existing := core.Transaction{ID: "1", Date: "2025-05-01", Card: "Visa", Amount: 4200}

	tests := []struct {
		name string
		req  core.CreateRequest
		want bool
	}{
		{"same date card amount", core.CreateRequest{Date: "2025-05-01", Card: "Visa", Amount: 4200}, true},
		{"one unit more", core.CreateRequest{Date: "2025-05-01", Card: "Visa", Amount: 4201}, false},
		{"one unit less", core.CreateRequest{Date: "2025-05-01", Card: "Visa", Amount: 4199}, false},
		{"different card", core.CreateRequest{Date: "2025-05-01", Card: "Amex", Amount: 4200}, false},
		{"different date", core.CreateRequest{Date: "2025-05-02", Card: "Visa", Amount: 4200}, false},
		{"description ignored", core.CreateRequest{Date: "2025-05-01", Card: "Visa", Amount: 4200, Description: "other"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicate(existing, tt.req); got != tt.want {
				t.Errorf("IsDuplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	existing := []core.Transaction{
		{ID: "a", Date: "2025-05-01", Card: "Visa", Amount: 1000},
		{ID: "b", Date: "2025-05-01", Card: "Visa", Amount: 1000, IsArchived: true},
		{ID: "c", Date: "2025-05-03", Card: "Amex", Amount: 50},
	}
	requests := []core.CreateRequest{
		{Date: "2025-05-01", Card: "Visa", Amount: 1000, Description: "coffee"},
		{Date: "2025-05-02", Card: "Visa", Amount: 1000},
		{Date: "2025-05-03", Card: "Amex", Amount: 50},
	}

	t.Run("flag only", func(t *testing.T) {
		got := Plan(existing, requests, Options{})
		want := []Decision{
			{Request: core.CreateRequest{Date: "2025-05-01", Card: "Visa", Amount: 1000, Description: "coffee", IsDuplicate: true}, Duplicates: []string{"a", "b"}},
			{Request: requests[1]},
			{Request: core.CreateRequest{Date: "2025-05-03", Card: "Amex", Amount: 50, IsDuplicate: true}, Duplicates: []string{"c"}},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Plan mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("skip duplicates", func(t *testing.T) {
		got := Plan(existing, requests, Options{SkipDuplicates: true})
		var skipped []bool
		for _, d := range got {
			skipped = append(skipped, d.Skip)
		}
		if diff := cmp.Diff([]bool{true, false, true}, skipped); diff != "" {
			t.Fatalf("skip flags mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("does not mutate requests", func(t *testing.T) {
		in := []core.CreateRequest{{Date: "2025-05-01", Card: "Visa", Amount: 1000}}
		_ = Plan(existing, in, Options{})
		if in[0].IsDuplicate {
			t.Fatal("input request was mutated")
		}
	})

	t.Run("empty store", func(t *testing.T) {
		got := Plan(nil, requests, Options{SkipDuplicates: true})
		for i, d := range got {
			if d.Skip || d.Request.IsDuplicate {
				t.Errorf("request %d unexpectedly flagged", i)
			}
		}
	})
}

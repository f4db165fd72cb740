package analytics

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSavingsRateRule(t *testing.T) {
	tests := []struct {
		name     string
		income   int64
		expenses int64
		want     string
	}{
		{"exactly 20 is not above threshold", 10000, 8000, "above 10% but below the optimal"},
		{"above 20", 10000, 7999, "above the recommended threshold"},
		{"exactly 10", 10000, 9000, "positive but below the typical recommendation"},
		{"just positive", 10000, 9999, "positive but below the typical recommendation"},
		{"zero rate", 10000, 10000, ""},
		{"negative rate", 10000, 12000, ""},
		{"no expenses", 10000, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := savingsRateRule(AnalyticsData{TotalIncome: tt.income, TotalExpenses: tt.expenses}, "EUR")
			if tt.want == "" {
				if len(got) != 0 {
					t.Fatalf("expected no message, got %v", got)
				}
				return
			}
			if len(got) != 1 || !strings.Contains(got[0], tt.want) {
				t.Fatalf("got %v, want message containing %q", got, tt.want)
			}
		})
	}
}

func TestNetTrendRule(t *testing.T) {
	tests := []struct {
		name   string
		trends []MonthlyTrendData
		want   string
	}{
		{"single point", []MonthlyTrendData{{Month: "Jan 2025", Net: 5}}, ""},
		{"zero delta", []MonthlyTrendData{{Month: "Jan 2025", Net: 500}, {Month: "Feb 2025", Net: 500}}, "remained consistent"},
		{"increase", []MonthlyTrendData{{Month: "Jan 2025", Net: -100}, {Month: "Feb 2025", Net: 150}}, "increased by 2.50 EUR"},
		{"decrease", []MonthlyTrendData{{Month: "Jan 2025", Net: 100}, {Month: "Feb 2025", Net: 0}, {Month: "Mar 2025", Net: -50}}, "decreased by 0.50 EUR from Feb 2025 to Mar 2025"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := netTrendRule(AnalyticsData{MonthlyTrends: tt.trends}, "EUR")
			if tt.want == "" {
				if len(got) != 0 {
					t.Fatalf("expected no message, got %v", got)
				}
				return
			}
			if len(got) != 1 || !strings.Contains(got[0], tt.want) {
				t.Fatalf("got %v, want message containing %q", got, tt.want)
			}
		})
	}
}

func TestAverageTransactionRule(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		count int
		want  string
	}{
		{"high value", 2002, 2, "high-value"},
		{"exactly 1000", 2000, 2, ""},
		{"exactly 100", 200, 2, ""},
		{"small", 198, 2, "frequent small"},
		{"no transactions", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := averageTransactionRule(AnalyticsData{TotalExpenses: tt.total, TransactionCount: tt.count}, "EUR")
			if tt.want == "" {
				if len(got) != 0 {
					t.Fatalf("expected no message, got %v", got)
				}
				return
			}
			if len(got) != 1 || !strings.Contains(got[0], tt.want) {
				t.Fatalf("got %v, want message containing %q", got, tt.want)
			}
		})
	}
}

func TestVolumeRule(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, ""},
		{1, "Low volume"},
		{9, "Low volume"},
		{10, ""},
		{50, ""},
		{51, "High volume"},
	}
	for _, tt := range tests {
		got := volumeRule(AnalyticsData{TransactionCount: tt.count}, "")
		switch {
		case tt.want == "" && len(got) != 0:
			t.Errorf("count %d: expected no message, got %v", tt.count, got)
		case tt.want != "" && (len(got) != 1 || !strings.HasPrefix(got[0], tt.want)):
			t.Errorf("count %d: got %v, want %q", tt.count, got, tt.want)
		}
	}
}

func TestExpenseRatioRule(t *testing.T) {
	tests := []struct {
		name     string
		expenses int64
		want     string
	}{
		{"exactly 90", 9000, ""},
		{"above 90", 9001, "High expense ratio"},
		{"exactly 50", 5000, ""},
		{"below 50", 4999, "Low expense ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expenseRatioRule(AnalyticsData{TotalIncome: 10000, TotalExpenses: tt.expenses}, "")
			if tt.want == "" {
				if len(got) != 0 {
					t.Fatalf("expected no message, got %v", got)
				}
				return
			}
			if len(got) != 1 || !strings.HasPrefix(got[0], tt.want) {
				t.Fatalf("got %v, want %q", got, tt.want)
			}
		})
	}
}

func TestConcentrationRule(t *testing.T) {
	at := func(pct float64) AnalyticsData {
		return AnalyticsData{TopExpenseCategories: []CategoryData{{Category: "Rent", Percentage: pct}}}
	}
	if got := concentrationRule(at(50), ""); len(got) != 0 {
		t.Errorf("50%% should not trigger, got %v", got)
	}
	if got := concentrationRule(at(50.1), ""); len(got) != 1 {
		t.Errorf("50.1%% should trigger, got %v", got)
	}
}

func TestCashFlowRule(t *testing.T) {
	if got := cashFlowRule(AnalyticsData{}, "EUR"); len(got) != 0 {
		t.Errorf("empty data should produce no cash flow message, got %v", got)
	}
	got := cashFlowRule(AnalyticsData{TransactionCount: 2}, "EUR")
	if len(got) != 1 || !strings.Contains(got[0], "balanced") {
		t.Errorf("expected balanced message, got %v", got)
	}
	got = cashFlowRule(AnalyticsData{NetIncome: -12345, TransactionCount: 1}, "EUR")
	if len(got) != 1 || !strings.Contains(got[0], "negative cash flow of 123.45 EUR") {
		t.Errorf("expected negative message, got %v", got)
	}
}

func TestGenerateInsights_Order(t *testing.T) {
	data := AnalyticsData{
		TotalIncome:      100000,
		TotalExpenses:    40000,
		NetIncome:        60000,
		TransactionCount: 3,
		TopExpenseCategories: []CategoryData{
			{Category: "Rent", Amount: 30000, Percentage: 75},
			{Category: "Food", Amount: 10000, Percentage: 25},
		},
		MonthlyTrends: []MonthlyTrendData{
			{Month: "Jan 2025", Net: 10000},
			{Month: "Feb 2025", Net: 50000},
		},
	}
	got := GenerateInsights(data, "EUR")
	want := []string{
		"You have a positive cash flow of 600.00 EUR in this period.",
		"Your top expense category is Rent at 75.0% of expenses (300.00 EUR).",
		"Your second largest expense category is Food at 25.0% of expenses (100.00 EUR).",
		"Your net income increased by 400.00 EUR from Jan 2025 to Feb 2025.",
		"Your savings rate of 60.0% is above the recommended threshold of 20%.",
		"Your transactions are high-value, averaging 466.66 EUR each.",
		"Your spending is highly concentrated: Rent accounts for 75.0% of expenses.",
		"Low volume: only 3 transactions in this period.",
		"Low expense ratio: you spend only 40.0% of your income.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GenerateInsights mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRules_Custom(t *testing.T) {
	rules := []Rule{
		{Name: "a", Apply: func(AnalyticsData, string) []string { return []string{"first"} }},
		{Name: "b", Apply: func(AnalyticsData, string) []string { return nil }},
		{Name: "c", Apply: func(AnalyticsData, string) []string { return []string{"second", "third"} }},
	}
	got := RunRules(rules, AnalyticsData{}, "")
	if diff := cmp.Diff([]string{"first", "second", "third"}, got); diff != "" {
		t.Fatalf("RunRules mismatch (-want +got):\n%s", diff)
	}
}

// Package analytics turns transaction snapshots into totals, category
// breakdowns, monthly trends and plain-language insights.
package analytics

import (
	"sort"
	"time"

	"ledger/internal/core"
)

const (
	// TopN is the size of the top-category slices.
	TopN = 5
	// TrendMonths is the number of most recent months kept in the trend.
	TrendMonths = 6

	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
)

// Palette is cycled by position within a breakdown. The same category can
// therefore get different colours in different breakdowns.
var Palette = []string{
	"#3B82F6",
	"#EF4444",
	"#10B981",
	"#F59E0B",
	"#8B5CF6",
	"#EC4899",
	"#06B6D4",
	"#84CC16",
	"#F97316",
	"#6366F1",
}

type (
	// CategoryData is one row of a category breakdown.
	CategoryData struct {
		Category   string  `json:"category"`
		Amount     int64   `json:"amount"`
		Percentage float64 `json:"percentage"`
		Count      int     `json:"count"`
		Color      string  `json:"color"`
	}

	// MonthlyTrendData holds the income and expense totals of one month.
	MonthlyTrendData struct {
		Month    string `json:"month"` // "Jan 2006"
		Income   int64  `json:"income"`
		Expenses int64  `json:"expenses"`
		Net      int64  `json:"net"`
	}

	// AnalyticsData is derived on demand and never persisted.
	AnalyticsData struct {
		TotalIncome          int64              `json:"totalIncome"`
		TotalExpenses        int64              `json:"totalExpenses"`
		NetIncome            int64              `json:"netIncome"`
		TransactionCount     int                `json:"transactionCount"`
		CategoryBreakdown    []CategoryData     `json:"categoryBreakdown"`
		IncomeByCategory     []CategoryData     `json:"incomeByCategory"`
		ExpensesByCategory   []CategoryData     `json:"expensesByCategory"`
		MonthlyTrends        []MonthlyTrendData `json:"monthlyTrends"`
		TopCategories        []CategoryData     `json:"topCategories"`
		TopIncomeCategories  []CategoryData     `json:"topIncomeCategories"`
		TopExpenseCategories []CategoryData     `json:"topExpenseCategories"`
	}
)

// Compute aggregates txs. The caller is expected to have filtered them
// already (including archived exclusion). Empty input yields zero totals and
// empty slices.
func Compute(txs []core.Transaction) AnalyticsData {
	var data AnalyticsData
	for _, t := range txs {
		if t.IsIncome {
			data.TotalIncome += t.Amount
		} else {
			data.TotalExpenses += t.Amount
		}
	}
	data.NetIncome = data.TotalIncome - data.TotalExpenses
	data.TransactionCount = len(txs)

	data.CategoryBreakdown = Breakdown(txs, func(core.Transaction) bool { return true })
	data.IncomeByCategory = Breakdown(txs, func(t core.Transaction) bool { return t.IsIncome })
	data.ExpensesByCategory = Breakdown(txs, func(t core.Transaction) bool { return !t.IsIncome })
	data.MonthlyTrends = MonthlyTrends(txs)

	data.TopCategories = top(data.CategoryBreakdown, TopN)
	data.TopIncomeCategories = top(data.IncomeByCategory, TopN)
	data.TopExpenseCategories = top(data.ExpensesByCategory, TopN)
	return data
}

// CategoryTotals returns the overall category breakdown of txs.
func CategoryTotals(txs []core.Transaction) []CategoryData {
	return Breakdown(txs, func(core.Transaction) bool { return true })
}

// Breakdown groups the transactions accepted by keep by category, largest
// amount first. Ties keep the order in which categories first appear.
func Breakdown(txs []core.Transaction, keep func(core.Transaction) bool) []CategoryData {
	index := make(map[string]int)
	out := make([]CategoryData, 0)
	var total int64
	for _, t := range txs {
		if !keep(t) {
			continue
		}
		amount := abs(t.Amount)
		name := t.CategoryOrDefault()
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryData{Category: name})
		}
		out[i].Amount += amount
		out[i].Count++
		total += amount
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })

	for i := range out {
		if total > 0 {
			out[i].Percentage = float64(out[i].Amount) / float64(total) * 100
		}
		out[i].Color = Palette[i%len(Palette)]
	}
	return out
}

// MonthlyTrends buckets transactions by calendar month and returns the most
// recent TrendMonths buckets in chronological order. Transactions whose date
// has no parsable YYYY-MM prefix are skipped.
func MonthlyTrends(txs []core.Transaction) []MonthlyTrendData {
	type bucket struct {
		month    time.Time
		income   int64
		expenses int64
	}
	buckets := make(map[string]*bucket)
	for _, t := range txs {
		if len(t.Date) < len(monthKeyLayout) {
			continue
		}
		key := t.Date[:len(monthKeyLayout)]
		b, ok := buckets[key]
		if !ok {
			month, err := time.Parse(monthKeyLayout, key)
			if err != nil {
				continue
			}
			b = &bucket{month: month}
			buckets[key] = b
		}
		if t.IsIncome {
			b.income += t.Amount
		} else {
			b.expenses += t.Amount
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	// YYYY-MM keys sort chronologically; the "Jan 2006" labels would not.
	sort.Strings(keys)
	if len(keys) > TrendMonths {
		keys = keys[len(keys)-TrendMonths:]
	}

	out := make([]MonthlyTrendData, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, MonthlyTrendData{
			Month:    b.month.Format(monthLabelLayout),
			Income:   b.income,
			Expenses: b.expenses,
			Net:      b.income - b.expenses,
		})
	}
	return out
}

func top(in []CategoryData, n int) []CategoryData {
	if len(in) > n {
		in = in[:n]
	}
	out := make([]CategoryData, len(in))
	copy(out, in)
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

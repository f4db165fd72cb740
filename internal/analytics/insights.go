package analytics

import (
	"fmt"

	"ledger/internal/core"
)

// Rule is one step of the insight pipeline. Apply returns zero or more
// messages; rules never depend on each other.
type Rule struct {
	Name  string
	Apply func(data AnalyticsData, currency string) []string
}

// DefaultRules is the ordered insight pipeline.
var DefaultRules = []Rule{
	{Name: "cash_flow", Apply: cashFlowRule},
	{Name: "top_expenses", Apply: topExpensesRule},
	{Name: "net_trend", Apply: netTrendRule},
	{Name: "savings_rate", Apply: savingsRateRule},
	{Name: "average_transaction", Apply: averageTransactionRule},
	{Name: "spending_concentration", Apply: concentrationRule},
	{Name: "transaction_volume", Apply: volumeRule},
	{Name: "expense_ratio", Apply: expenseRatioRule},
}

// GenerateInsights runs DefaultRules over data.
func GenerateInsights(data AnalyticsData, currency string) []string {
	return RunRules(DefaultRules, data, currency)
}

// RunRules evaluates rules in order and concatenates their messages.
func RunRules(rules []Rule, data AnalyticsData, currency string) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Apply(data, currency)...)
	}
	return out
}

func cashFlowRule(d AnalyticsData, currency string) []string {
	switch {
	case d.NetIncome > 0:
		return []string{fmt.Sprintf("You have a positive cash flow of %s in this period.", core.FormatMoney(d.NetIncome, currency))}
	case d.NetIncome < 0:
		return []string{fmt.Sprintf("You have a negative cash flow of %s in this period.", core.FormatMoney(-d.NetIncome, currency))}
	case d.TransactionCount > 0:
		return []string{"Your income and expenses are balanced in this period."}
	}
	return nil
}

func topExpensesRule(d AnalyticsData, currency string) []string {
	if len(d.TopExpenseCategories) == 0 {
		return nil
	}
	first := d.TopExpenseCategories[0]
	out := []string{fmt.Sprintf("Your top expense category is %s at %.1f%% of expenses (%s).",
		first.Category, first.Percentage, core.FormatMoney(first.Amount, currency))}
	if len(d.TopExpenseCategories) > 1 {
		second := d.TopExpenseCategories[1]
		out = append(out, fmt.Sprintf("Your second largest expense category is %s at %.1f%% of expenses (%s).",
			second.Category, second.Percentage, core.FormatMoney(second.Amount, currency)))
	}
	return out
}

func netTrendRule(d AnalyticsData, currency string) []string {
	n := len(d.MonthlyTrends)
	if n < 2 {
		return nil
	}
	prev, last := d.MonthlyTrends[n-2], d.MonthlyTrends[n-1]
	delta := last.Net - prev.Net
	switch {
	case delta > 0:
		return []string{fmt.Sprintf("Your net income increased by %s from %s to %s.",
			core.FormatMoney(delta, currency), prev.Month, last.Month)}
	case delta < 0:
		return []string{fmt.Sprintf("Your net income decreased by %s from %s to %s.",
			core.FormatMoney(-delta, currency), prev.Month, last.Month)}
	}
	return []string{fmt.Sprintf("Your net income remained consistent from %s to %s.", prev.Month, last.Month)}
}

func savingsRateRule(d AnalyticsData, _ string) []string {
	if d.TotalIncome <= 0 || d.TotalExpenses <= 0 {
		return nil
	}
	rate := float64(d.TotalIncome-d.TotalExpenses) * 100 / float64(d.TotalIncome)
	switch {
	case rate > 20:
		return []string{fmt.Sprintf("Your savings rate of %.1f%% is above the recommended threshold of 20%%.", rate)}
	case rate > 10:
		return []string{fmt.Sprintf("Your savings rate of %.1f%% is above 10%% but below the optimal 20%%.", rate)}
	case rate > 0:
		return []string{fmt.Sprintf("Your savings rate of %.1f%% is positive but below the typical recommendation of 10%%.", rate)}
	}
	return nil
}

func averageTransactionRule(d AnalyticsData, currency string) []string {
	if d.TransactionCount <= 0 {
		return nil
	}
	avg := float64(d.TotalIncome+d.TotalExpenses) / float64(d.TransactionCount)
	switch {
	case avg > 1000:
		return []string{fmt.Sprintf("Your transactions are high-value, averaging %s each.",
			core.FormatMoney(int64(avg), currency))}
	case avg < 100:
		return []string{fmt.Sprintf("You make frequent small transactions, averaging %s each.",
			core.FormatMoney(int64(avg), currency))}
	}
	return nil
}

func concentrationRule(d AnalyticsData, _ string) []string {
	if len(d.TopExpenseCategories) == 0 {
		return nil
	}
	top := d.TopExpenseCategories[0]
	if top.Percentage > 50 {
		return []string{fmt.Sprintf("Your spending is highly concentrated: %s accounts for %.1f%% of expenses.",
			top.Category, top.Percentage)}
	}
	return nil
}

func volumeRule(d AnalyticsData, _ string) []string {
	switch {
	case d.TransactionCount > 50:
		return []string{fmt.Sprintf("High volume: %d transactions in this period.", d.TransactionCount)}
	case d.TransactionCount > 0 && d.TransactionCount < 10:
		return []string{fmt.Sprintf("Low volume: only %d transactions in this period.", d.TransactionCount)}
	}
	return nil
}

func expenseRatioRule(d AnalyticsData, _ string) []string {
	if d.TotalIncome <= 0 || d.TotalExpenses <= 0 {
		return nil
	}
	ratio := float64(d.TotalExpenses) * 100 / float64(d.TotalIncome)
	switch {
	case ratio > 90:
		return []string{fmt.Sprintf("High expense ratio: you spend %.1f%% of your income.", ratio)}
	case ratio < 50:
		return []string{fmt.Sprintf("Low expense ratio: you spend only %.1f%% of your income.", ratio)}
	}
	return nil
}

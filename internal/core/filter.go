package core

const (
	PeriodToday     Period = "today"
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodLastMonth Period = "lastMonth"
	PeriodQuarter   Period = "quarter"
	PeriodYear      Period = "year"
	PeriodSpring    Period = "spring"
	PeriodSummer    Period = "summer"
	PeriodAutumn    Period = "autumn"
	PeriodWinter    Period = "winter"
	PeriodCustom    Period = "custom"
)

const (
	CategoriesInclude CategoriesMode = "include"
	CategoriesExclude CategoriesMode = "exclude"
)

type (
	// Period names a date range relative to today.
	Period string

	// CategoriesMode selects whether Filter.Categories is an allow or deny list.
	CategoriesMode string

	// DateRange holds two ISO dates (YYYY-MM-DD), both inclusive. A range
	// whose start month is greater than its end month within the same year
	// spans into the following year (winter wraparound).
	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}

	// Filter is a sparse filter specification. Zero values mean no
	// constraint on that dimension.
	Filter struct {
		DateRange       *DateRange     `json:"dateRange,omitempty"`
		Categories      []string       `json:"categories,omitempty"`
		CategoriesMode  CategoriesMode `json:"categoriesMode,omitempty"`
		Cards           []string       `json:"cards,omitempty"`
		IsIncome        *bool          `json:"isIncome,omitempty"`
		MinAmount       *int64         `json:"minAmount,omitempty"`
		MaxAmount       *int64         `json:"maxAmount,omitempty"`
		SearchQuery     string         `json:"searchQuery,omitempty"`
		IncludeArchived bool           `json:"includeArchived,omitempty"`
	}
)

// NamedPeriods lists every period that resolves without caller input, in
// the order used when labelling an arbitrary range.
var NamedPeriods = []Period{
	PeriodToday,
	PeriodWeek,
	PeriodMonth,
	PeriodLastMonth,
	PeriodQuarter,
	PeriodYear,
	PeriodSpring,
	PeriodSummer,
	PeriodAutumn,
	PeriodWinter,
}

// IsValid reports whether p is a known period.
func (p Period) IsValid() bool {
	if p == PeriodCustom {
		return true
	}
	for _, named := range NamedPeriods {
		if p == named {
			return true
		}
	}
	return false
}

// Exclude reports whether the category list is a deny list.
func (m CategoriesMode) Exclude() bool {
	return m == CategoriesExclude
}

// Wraps reports whether the range uses the winter wraparound encoding.
func (r DateRange) Wraps() bool {
	if len(r.Start) < 7 || len(r.End) < 7 {
		return false
	}
	return r.Start[:4] == r.End[:4] && r.Start[5:7] > r.End[5:7]
}

// Bool returns a pointer to v, for optional filter fields.
func Bool(v bool) *bool { return &v }

// Int64 returns a pointer to v, for optional filter fields.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to v, for patches.
func String(v string) *string { return &v }

package query

import (
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// URL query parameter names for a filter.
const (
	ParamStart           = "start"
	ParamEnd             = "end"
	ParamCategories      = "categories"
	ParamCategoriesMode  = "categoriesMode"
	ParamCards           = "cards"
	ParamType            = "type"
	ParamSearch          = "search"
	ParamMinAmount       = "minAmount"
	ParamMaxAmount       = "maxAmount"
	ParamIncludeArchived = "includeArchived"

	TypeIncome  = "income"
	TypeExpense = "expense"
)

// ParseFilter decodes a filter from URL query parameters. Unknown or
// malformed values are ignored so a stale link never fails. A date range is
// set only when both start and end are present. Amounts are minor units.
func ParseFilter(v url.Values) core.Filter {
	var f core.Filter

	start, end := strings.TrimSpace(v.Get(ParamStart)), strings.TrimSpace(v.Get(ParamEnd))
	if start != "" && end != "" {
		f.DateRange = &core.DateRange{Start: start, End: end}
	}

	f.Categories = splitList(v.Get(ParamCategories))
	switch mode := core.CategoriesMode(v.Get(ParamCategoriesMode)); mode {
	case core.CategoriesInclude, core.CategoriesExclude:
		f.CategoriesMode = mode
	}
	f.Cards = splitList(v.Get(ParamCards))

	switch v.Get(ParamType) {
	case TypeIncome:
		f.IsIncome = core.Bool(true)
	case TypeExpense:
		f.IsIncome = core.Bool(false)
	}

	f.SearchQuery = v.Get(ParamSearch)
	f.MinAmount = parseAmount(v.Get(ParamMinAmount))
	f.MaxAmount = parseAmount(v.Get(ParamMaxAmount))

	if b, err := strconv.ParseBool(v.Get(ParamIncludeArchived)); err == nil {
		f.IncludeArchived = b
	}
	return f
}

// EncodeFilter is the inverse of ParseFilter. Only constrained dimensions
// are emitted. Category and card names must not contain commas.
func EncodeFilter(f core.Filter) url.Values {
	v := url.Values{}
	if f.DateRange != nil {
		v.Set(ParamStart, f.DateRange.Start)
		v.Set(ParamEnd, f.DateRange.End)
	}
	if len(f.Categories) > 0 {
		v.Set(ParamCategories, strings.Join(f.Categories, ","))
	}
	if f.CategoriesMode != "" {
		v.Set(ParamCategoriesMode, string(f.CategoriesMode))
	}
	if len(f.Cards) > 0 {
		v.Set(ParamCards, strings.Join(f.Cards, ","))
	}
	if f.IsIncome != nil {
		if *f.IsIncome {
			v.Set(ParamType, TypeIncome)
		} else {
			v.Set(ParamType, TypeExpense)
		}
	}
	if f.SearchQuery != "" {
		v.Set(ParamSearch, f.SearchQuery)
	}
	if f.MinAmount != nil {
		v.Set(ParamMinAmount, strconv.FormatInt(*f.MinAmount, 10))
	}
	if f.MaxAmount != nil {
		v.Set(ParamMaxAmount, strconv.FormatInt(*f.MaxAmount, 10))
	}
	if f.IncludeArchived {
		v.Set(ParamIncludeArchived, "true")
	}
	return v
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseAmount(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Package period resolves named periods into concrete date ranges.
//
// Each named period is a strategy registered in a lookup table, the same way
// recurrence frequencies are resolved elsewhere. All ranges are expressed as
// ISO dates (YYYY-MM-DD) so they can be compared lexicographically.
package period

import (
	"fmt"
	"time"

	"ledger/internal/core"
)

// DateLayout is the ISO date layout used for every resolved boundary.
const DateLayout = "2006-01-02"

// RangeFunc computes the range of a named period for the given day.
type RangeFunc func(today time.Time) core.DateRange

// Resolver maps periods to date ranges relative to its clock.
type Resolver struct {
	now        func() time.Time
	strategies map[core.Period]RangeFunc
}

// NewResolver returns a resolver using the wall clock.
func NewResolver() *Resolver {
	return NewResolverWithClock(time.Now)
}

// NewResolverWithClock returns a resolver whose notion of today comes from now.
func NewResolverWithClock(now func() time.Time) *Resolver {
	strategies := make(map[core.Period]RangeFunc, len(defaultStrategies))
	for p, fn := range defaultStrategies {
		strategies[p] = fn
	}
	return &Resolver{now: now, strategies: strategies}
}

// Register adds or replaces the strategy for a period.
func (r *Resolver) Register(p core.Period, fn RangeFunc) {
	r.strategies[p] = fn
}

// Today returns today's date as an ISO string.
func (r *Resolver) Today() string {
	return r.now().Format(DateLayout)
}

// Resolve returns the concrete range for p. For PeriodCustom the supplied
// range is returned verbatim, or {today, today} when it is nil. Unknown
// periods resolve like PeriodCustom.
func (r *Resolver) Resolve(p core.Period, custom *core.DateRange) core.DateRange {
	if fn, ok := r.strategies[p]; ok && p != core.PeriodCustom {
		return fn(midnight(r.now()))
	}
	if custom != nil {
		return *custom
	}
	today := r.Today()
	return core.DateRange{Start: today, End: today}
}

// Label returns the first named period whose resolved range equals rng, or
// PeriodCustom when none matches.
func (r *Resolver) Label(rng core.DateRange) core.Period {
	today := midnight(r.now())
	for _, p := range core.NamedPeriods {
		fn, ok := r.strategies[p]
		if !ok {
			continue
		}
		candidate := fn(today)
		if candidate.Start == rng.Start && candidate.End == rng.End {
			return p
		}
	}
	return core.PeriodCustom
}

// Lookup resolves a period by name, rejecting unknown names.
func (r *Resolver) Lookup(name string, custom *core.DateRange) (core.DateRange, error) {
	p := core.Period(name)
	if !p.IsValid() {
		return core.DateRange{}, fmt.Errorf("unknown period: %s", name)
	}
	return r.Resolve(p, custom), nil
}

var defaultStrategies = map[core.Period]RangeFunc{
	core.PeriodToday:     todayRange,
	core.PeriodWeek:      weekRange,
	core.PeriodMonth:     monthRange,
	core.PeriodLastMonth: lastMonthRange,
	core.PeriodQuarter:   quarterRange,
	core.PeriodYear:      yearRange,
	core.PeriodSpring:    seasonRange(time.March),
	core.PeriodSummer:    seasonRange(time.June),
	core.PeriodAutumn:    seasonRange(time.September),
	core.PeriodWinter:    winterRange,
}

func todayRange(today time.Time) core.DateRange {
	return span(today, today)
}

// weekRange starts on Monday; Sunday is the seventh day of the week that
// began the previous Monday.
func weekRange(today time.Time) core.DateRange {
	offset := (int(today.Weekday()) + 6) % 7
	start := today.AddDate(0, 0, -offset)
	return span(start, start.AddDate(0, 0, 6))
}

func monthRange(today time.Time) core.DateRange {
	return monthsSpan(today.Year(), today.Month(), 1, today.Location())
}

func lastMonthRange(today time.Time) core.DateRange {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	prev := first.AddDate(0, -1, 0)
	return monthsSpan(prev.Year(), prev.Month(), 1, today.Location())
}

func quarterRange(today time.Time) core.DateRange {
	startMonth := time.Month((int(today.Month())-1)/3*3 + 1)
	return monthsSpan(today.Year(), startMonth, 3, today.Location())
}

func yearRange(today time.Time) core.DateRange {
	return monthsSpan(today.Year(), time.January, 12, today.Location())
}

func seasonRange(first time.Month) RangeFunc {
	return func(today time.Time) core.DateRange {
		return monthsSpan(today.Year(), first, 3, today.Location())
	}
}

// winterRange encodes December of year Y through February of Y+1 as
// {Y-12-01, Y-02-<last day>}: the end month is smaller than the start month
// while both years are equal, which consumers read as "spans into Y+1".
// In January and February the running winter began the previous December.
// The end day is the last day of February in Y+1, so a leap-year winter
// ends on the 29th once the year is shifted.
func winterRange(today time.Time) core.DateRange {
	y := today.Year()
	if today.Month() <= time.February {
		y--
	}
	start := time.Date(y, time.December, 1, 0, 0, 0, 0, today.Location())
	lastFeb := time.Date(y+1, time.March, 0, 0, 0, 0, 0, today.Location()).Day()
	return core.DateRange{
		Start: start.Format(DateLayout),
		End:   fmt.Sprintf("%04d-02-%02d", y, lastFeb),
	}
}

// monthsSpan covers n whole months starting at the first day of month m.
func monthsSpan(year int, m time.Month, n int, loc *time.Location) core.DateRange {
	start := time.Date(year, m, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, m+time.Month(n), 0, 0, 0, 0, 0, loc)
	return span(start, end)
}

func span(start, end time.Time) core.DateRange {
	return core.DateRange{Start: start.Format(DateLayout), End: end.Format(DateLayout)}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

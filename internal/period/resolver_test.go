package period

import (
	"testing"
	"time"

	"ledger/internal/core"
)

func fixedClock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 15, 30, 0, 0, time.UTC) }
}

func TestResolver_Resolve(t *testing.T) {
	// Wednesday 15 October 2025
	r := NewResolverWithClock(fixedClock(2025, time.October, 15))

	tests := []struct {
		period core.Period
		want   core.DateRange
	}{
		{core.PeriodToday, core.DateRange{Start: "2025-10-15", End: "2025-10-15"}},
		{core.PeriodWeek, core.DateRange{Start: "2025-10-13", End: "2025-10-19"}},
		{core.PeriodMonth, core.DateRange{Start: "2025-10-01", End: "2025-10-31"}},
		{core.PeriodLastMonth, core.DateRange{Start: "2025-09-01", End: "2025-09-30"}},
		{core.PeriodQuarter, core.DateRange{Start: "2025-10-01", End: "2025-12-31"}},
		{core.PeriodYear, core.DateRange{Start: "2025-01-01", End: "2025-12-31"}},
		{core.PeriodSpring, core.DateRange{Start: "2025-03-01", End: "2025-05-31"}},
		{core.PeriodSummer, core.DateRange{Start: "2025-06-01", End: "2025-08-31"}},
		{core.PeriodAutumn, core.DateRange{Start: "2025-09-01", End: "2025-11-30"}},
		{core.PeriodWinter, core.DateRange{Start: "2025-12-01", End: "2025-02-28"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got := r.Resolve(tt.period, nil)
			if got != tt.want {
				t.Errorf("Resolve(%s) = %+v, want %+v", tt.period, got, tt.want)
			}
		})
	}
}

func TestResolver_WeekOnSunday(t *testing.T) {
	// Sunday 19 October 2025 is day 7 of the week starting Monday 13th.
	r := NewResolverWithClock(fixedClock(2025, time.October, 19))
	got := r.Resolve(core.PeriodWeek, nil)
	want := core.DateRange{Start: "2025-10-13", End: "2025-10-19"}
	if got != want {
		t.Fatalf("week on Sunday = %+v, want %+v", got, want)
	}

	// Monday starts a new week.
	r = NewResolverWithClock(fixedClock(2025, time.October, 20))
	got = r.Resolve(core.PeriodWeek, nil)
	want = core.DateRange{Start: "2025-10-20", End: "2025-10-26"}
	if got != want {
		t.Fatalf("week on Monday = %+v, want %+v", got, want)
	}
}

func TestResolver_WeekAcrossYearBoundary(t *testing.T) {
	// Thursday 1 January 2026
	r := NewResolverWithClock(fixedClock(2026, time.January, 1))
	got := r.Resolve(core.PeriodWeek, nil)
	want := core.DateRange{Start: "2025-12-29", End: "2026-01-04"}
	if got != want {
		t.Fatalf("week = %+v, want %+v", got, want)
	}
}

func TestResolver_LastMonthInJanuary(t *testing.T) {
	r := NewResolverWithClock(fixedClock(2026, time.January, 10))
	got := r.Resolve(core.PeriodLastMonth, nil)
	want := core.DateRange{Start: "2025-12-01", End: "2025-12-31"}
	if got != want {
		t.Fatalf("lastMonth = %+v, want %+v", got, want)
	}
}

func TestResolver_QuarterBoundaries(t *testing.T) {
	tests := []struct {
		month time.Month
		want  core.DateRange
	}{
		{time.January, core.DateRange{Start: "2025-01-01", End: "2025-03-31"}},
		{time.March, core.DateRange{Start: "2025-01-01", End: "2025-03-31"}},
		{time.April, core.DateRange{Start: "2025-04-01", End: "2025-06-30"}},
		{time.September, core.DateRange{Start: "2025-07-01", End: "2025-09-30"}},
		{time.December, core.DateRange{Start: "2025-10-01", End: "2025-12-31"}},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			r := NewResolverWithClock(fixedClock(2025, tt.month, 15))
			if got := r.Resolve(core.PeriodQuarter, nil); got != tt.want {
				t.Errorf("quarter = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolver_WinterEncoding(t *testing.T) {
	tests := []struct {
		name  string
		clock func() time.Time
		want  core.DateRange
	}{
		{"april", fixedClock(2026, time.April, 10), core.DateRange{Start: "2026-12-01", End: "2026-02-28"}},
		{"december", fixedClock(2026, time.December, 24), core.DateRange{Start: "2026-12-01", End: "2026-02-28"}},
		{"january belongs to previous december", fixedClock(2026, time.January, 15), core.DateRange{Start: "2025-12-01", End: "2025-02-28"}},
		{"leap february", fixedClock(2024, time.February, 10), core.DateRange{Start: "2023-12-01", End: "2023-02-29"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewResolverWithClock(tt.clock).Resolve(core.PeriodWinter, nil)
			if got != tt.want {
				t.Fatalf("winter = %+v, want %+v", got, tt.want)
			}
			if got.Start[:4] != got.End[:4] {
				t.Errorf("winter years differ: %+v", got)
			}
			if got.Start[5:7] <= got.End[5:7] {
				t.Errorf("winter start month must exceed end month: %+v", got)
			}
			if !got.Wraps() {
				t.Errorf("winter range must use the wraparound encoding: %+v", got)
			}
		})
	}
}

func TestResolver_Custom(t *testing.T) {
	r := NewResolverWithClock(fixedClock(2025, time.October, 15))

	custom := &core.DateRange{Start: "2025-05-10", End: "2025-04-01"}
	if got := r.Resolve(core.PeriodCustom, custom); got != *custom {
		t.Fatalf("custom range must be returned verbatim, got %+v", got)
	}

	got := r.Resolve(core.PeriodCustom, nil)
	want := core.DateRange{Start: "2025-10-15", End: "2025-10-15"}
	if got != want {
		t.Fatalf("custom without range = %+v, want %+v", got, want)
	}
}

func TestResolver_Label(t *testing.T) {
	r := NewResolverWithClock(fixedClock(2025, time.October, 15))

	tests := []struct {
		name string
		rng  core.DateRange
		want core.Period
	}{
		{"today", core.DateRange{Start: "2025-10-15", End: "2025-10-15"}, core.PeriodToday},
		{"month", core.DateRange{Start: "2025-10-01", End: "2025-10-31"}, core.PeriodMonth},
		{"quarter", core.DateRange{Start: "2025-10-01", End: "2025-12-31"}, core.PeriodQuarter},
		{"winter", core.DateRange{Start: "2025-12-01", End: "2025-02-28"}, core.PeriodWinter},
		{"no match", core.DateRange{Start: "2025-10-02", End: "2025-10-31"}, core.PeriodCustom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Label(tt.rng); got != tt.want {
				t.Errorf("Label(%+v) = %s, want %s", tt.rng, got, tt.want)
			}
		})
	}
}

func TestResolver_LabelRoundTrip(t *testing.T) {
	r := NewResolverWithClock(fixedClock(2025, time.July, 2))
	for _, p := range core.NamedPeriods {
		if got := r.Label(r.Resolve(p, nil)); got != p {
			t.Errorf("Label(Resolve(%s)) = %s", p, got)
		}
	}
}

func TestResolver_Register(t *testing.T) {
	r := NewResolverWithClock(fixedClock(2025, time.October, 15))
	r.Register(core.PeriodYear, func(today time.Time) core.DateRange {
		return core.DateRange{Start: "fiscal", End: "fiscal"}
	})
	if got := r.Resolve(core.PeriodYear, nil); got.Start != "fiscal" {
		t.Fatalf("registered strategy not used: %+v", got)
	}
	// Strategies are per resolver.
	if got := NewResolverWithClock(fixedClock(2025, time.October, 15)).Resolve(core.PeriodYear, nil); got.Start != "2025-01-01" {
		t.Fatalf("registration leaked across resolvers: %+v", got)
	}
}

func TestResolver_Lookup(t *testing.T) {
	r := NewResolverWithClock(fixedClock(2025, time.October, 15))
	if _, err := r.Lookup("fortnight", nil); err == nil {
		t.Fatal("expected error for unknown period")
	}
	got, err := r.Lookup("month", nil)
	if err != nil || got.Start != "2025-10-01" {
		t.Fatalf("Lookup(month) = %+v, %v", got, err)
	}
}

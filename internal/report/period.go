// Package report aggregates billing data into dashboards, financial
// summaries and cash-flow series. Aggregation functions are pure: they take a
// Dataset already read from the store and a reference time.
package report

import (
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
)

// PeriodKind is the granularity of a reporting window.
type PeriodKind string

// Period kinds.
const (
	PeriodMonth   PeriodKind = "month"
	PeriodQuarter PeriodKind = "quarter"
	PeriodYear    PeriodKind = "year"
)

// ParsePeriodKind accepts month, quarter or year in any case.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch k := PeriodKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PeriodMonth, PeriodQuarter, PeriodYear:
		return k, nil
	case "":
		return PeriodMonth, nil
	}
	return "", billing.Invalid("period", fmt.Sprintf("unknown period %q", s))
}

// Period is a calendar-date window. Start is inclusive, End exclusive.
type Period struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
}

// PeriodFor returns the period of the given kind that contains date.
func PeriodFor(kind PeriodKind, date time.Time) Period {
	d := billing.DateOf(date)
	var start time.Time
	switch kind {
	case PeriodQuarter:
		q := (int(d.Month()) - 1) / 3
		start = time.Date(d.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYear:
		start = time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		kind = PeriodMonth
		start = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return Period{Kind: kind, Start: start, End: start.AddDate(0, kind.months(), 0)}
}

func (k PeriodKind) months() int {
	switch k {
	case PeriodQuarter:
		return 3
	case PeriodYear:
		return 12
	}
	return 1
}

// Previous returns the period of the same kind immediately before p.
func (p Period) Previous() Period {
	return PeriodFor(p.Kind, p.Start.AddDate(0, 0, -1))
}

// Contains reports whether the calendar date of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := billing.DateOf(t)
	return !d.Before(p.Start) && d.Before(p.End)
}

// Label renders the period as 2026-03, 2026-Q1 or 2026.
func (p Period) Label() string {
	switch p.Kind {
	case PeriodQuarter:
		return fmt.Sprintf("%d-Q%d", p.Start.Year(), (int(p.Start.Month())-1)/3+1)
	case PeriodYear:
		return fmt.Sprintf("%d", p.Start.Year())
	}
	return p.Start.Format("2006-01")
}

// MonthsEnding returns n consecutive monthly periods, oldest first, the last
// one containing date.
func MonthsEnding(n int, date time.Time) []Period {
	if n <= 0 {
		return nil
	}
	last := PeriodFor(PeriodMonth, date)
	out := make([]Period, n)
	for i := range n {
		out[i] = PeriodFor(PeriodMonth, last.Start.AddDate(0, i-(n-1), 0))
	}
	return out
}

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodFor(t *testing.T) {
	tests := []struct {
		name       string
		kind       PeriodKind
		at         time.Time
		start, end time.Time
		label      string
	}{
		{"month", PeriodMonth, time.Date(2026, 3, 15, 22, 30, 0, 0, time.UTC), date(2026, 3, 1), date(2026, 4, 1), "2026-03"},
		{"december rolls year", PeriodMonth, date(2025, 12, 31), date(2025, 12, 1), date(2026, 1, 1), "2025-12"},
		{"quarter", PeriodQuarter, date(2026, 5, 20), date(2026, 4, 1), date(2026, 7, 1), "2026-Q2"},
		{"last quarter", PeriodQuarter, date(2026, 12, 1), date(2026, 10, 1), date(2027, 1, 1), "2026-Q4"},
		{"year", PeriodYear, date(2026, 7, 4), date(2026, 1, 1), date(2027, 1, 1), "2026"},
		{"unknown kind falls back to month", PeriodKind("week"), date(2026, 2, 10), date(2026, 2, 1), date(2026, 3, 1), "2026-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodFor(tt.kind, tt.at)
			require.Equal(t, tt.start, p.Start)
			require.Equal(t, tt.end, p.End)
			require.Equal(t, tt.label, p.Label())
		})
	}
}

func TestPeriodPrevious(t *testing.T) {
	require.Equal(t, date(2025, 10, 1), PeriodFor(PeriodQuarter, date(2026, 2, 1)).Previous().Start)
	require.Equal(t, date(2026, 2, 1), PeriodFor(PeriodMonth, date(2026, 3, 31)).Previous().Start)
	require.Equal(t, date(2025, 1, 1), PeriodFor(PeriodYear, date(2026, 3, 31)).Previous().Start)
}

func TestPeriodContainsUsesCalendarDates(t *testing.T) {
	p := PeriodFor(PeriodMonth, date(2026, 3, 1))
	require.True(t, p.Contains(time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)))
	require.True(t, p.Contains(date(2026, 3, 1)))
	require.False(t, p.Contains(date(2026, 4, 1)))
	require.False(t, p.Contains(time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)))

	// The stored y/m/d counts, not the instant.
	paris := time.FixedZone("CET", 3600)
	require.True(t, p.Contains(time.Date(2026, 3, 1, 0, 30, 0, 0, paris)))
}

func TestMonthsEnding(t *testing.T) {
	got := MonthsEnding(3, date(2026, 1, 15))
	require.Len(t, got, 3)
	require.Equal(t, "2025-11", got[0].Label())
	require.Equal(t, "2025-12", got[1].Label())
	require.Equal(t, "2026-01", got[2].Label())

	require.Empty(t, MonthsEnding(0, date(2026, 1, 15)))
}

func TestParsePeriodKind(t *testing.T) {
	for in, want := range map[string]PeriodKind{"month": PeriodMonth, "Quarter": PeriodQuarter, " YEAR ": PeriodYear, "": PeriodMonth} {
		got, err := ParsePeriodKind(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParsePeriodKind("fortnight")
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestMonthsEndingProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 48).Draw(t, "months")
		at := date(rapid.IntRange(1990, 2100).Draw(t, "year"), time.Month(rapid.IntRange(1, 12).Draw(t, "month")), rapid.IntRange(1, 28).Draw(t, "day"))

		periods := MonthsEnding(n, at)
		if len(periods) != n {
			t.Fatalf("got %d periods, want %d", len(periods), n)
		}
		if !periods[n-1].Contains(at) {
			t.Fatalf("last period %s does not contain %s", periods[n-1].Label(), at)
		}
		for i := 1; i < n; i++ {
			if !periods[i-1].End.Equal(periods[i].Start) {
				t.Fatalf("gap between %s and %s", periods[i-1].Label(), periods[i].Label())
			}
		}
	})
}

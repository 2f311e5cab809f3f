package repositories

import (
	"time"
)

// phLocation is the fixed UTC+8 offset used for event eligibility
// timing. It is deliberately not derived from the user's locale, and
// deliberately not used for the monthly views, which run on the system
// clock. Unifying the two would shift event boundary behavior.
var phLocation = time.FixedZone("PHT", 8*60*60)

// DateOnly truncates t to a UTC calendar date. All date columns store
// values in this form so that range comparisons behave the same across
// drivers.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PHToday returns the calendar date of now as seen from UTC+8
func PHToday(now time.Time) time.Time {
	return DateOnly(now.In(phLocation))
}

// ParseDate parses a YYYY-MM-DD token into a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

// MonthWindow resolves an optional YYYY-MM token into the half-open
// range [start, end) covering that month, plus the normalized token. A
// missing or malformed token silently falls back to the current month
// on the system-local clock.
func MonthWindow(token string, now time.Time) (start, end time.Time, label string) {
	t, err := time.Parse("2006-01", token)
	if err != nil {
		t = now
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), start.Format("2006-01")
}

package dateutil

import "time"

// Day returns the UTC calendar day of t in YYYY-MM-DD form.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NextDay returns the first instant of the UTC day after t.
func NextDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

package database

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ParseDate validates a YYYY-MM-DD calendar date and returns it unchanged.
// Dates that do not round-trip (e.g. "2024-1-5") are rejected.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return s, nil
}

// DateOf formats the calendar date of t in t's own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// TimeOf formats the time of day of t in t's own location.
func TimeOf(t time.Time) string {
	return t.Format(TimeLayout)
}

// NewRecord builds the ledger entry for name observed at when.
func NewRecord(name string, when time.Time) AttendanceRecord {
	return AttendanceRecord{Name: name, Date: DateOf(when), Time: TimeOf(when)}
}

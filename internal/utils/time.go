package utils

import (
	"time"
)

const DayLayout = "2006-01-02"

// DayKey is the UTC calendar day a timestamp falls on.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseTimeParam accepts either an RFC 3339 timestamp or a bare day.
// An empty value yields the zero time.
func ParseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(DayLayout, value)
}

// ParseUpperTimeParam parses an exclusive upper bound. A bare day means the
// end of that day, so "to=2026-03-02" still includes events on March 2.
func ParseUpperTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	day, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return day.AddDate(0, 0, 1), nil
}

package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// errEmptyTime is returned for blank inputs so callers can treat them as absent.
var errEmptyTime = errors.New("empty time")

// ParseTime parses an RFC3339 timestamp (with or without fractional
// seconds) or a YYYY-MM-DD date, which resolves to the start of that day
// in local time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTime
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format: %q (expected YYYY-MM-DD or RFC3339)", s)
}

// ParseTimeEndOfDay is ParseTime except that a date-only value resolves to
// the last instant of that day, keeping the bound inclusive.
func ParseTimeEndOfDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTime
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}

	return time.Time{}, fmt.Errorf("invalid date format: %q (expected YYYY-MM-DD or RFC3339)", s)
}

// Package query implements log record filtering for store queries and exports.
package query

import (
	"net/url"
	"strings"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// Filter is a conjunction of optional constraints over log records.
// Zero-valued fields impose no constraint.
type Filter struct {
	// Start is the inclusive lower bound on the record timestamp.
	Start time.Time
	// End is the inclusive upper bound on the record timestamp.
	End time.Time
	// Level restricts records to a single level.
	Level models.LogLevel
	// Keyword is a case-insensitive substring of the message.
	Keyword string
}

// IsEmpty returns true if the filter matches every record.
func (f Filter) IsEmpty() bool {
	return f.Start.IsZero() && f.End.IsZero() && f.Level == "" && f.Keyword == ""
}

// Matches reports whether rec satisfies every non-empty constraint in f.
func Matches(rec *models.LogRecord, f Filter) bool {
	if !f.Start.IsZero() && rec.Timestamp.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && rec.Timestamp.After(f.End) {
		return false
	}
	if f.Level != "" && rec.Level != f.Level {
		return false
	}
	if f.Keyword != "" && !containsFold(rec.Message, f.Keyword) {
		return false
	}
	return true
}

// Predicate returns Matches bound to f.
func (f Filter) Predicate() func(*models.LogRecord) bool {
	if f.IsEmpty() {
		return func(*models.LogRecord) bool { return true }
	}
	return func(rec *models.LogRecord) bool { return Matches(rec, f) }
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FromValues builds a filter from request parameters startDate, endDate,
// level and keyword. Parsing is lenient: missing or malformed values are
// dropped rather than reported, so a bad parameter widens the result set
// instead of failing the request.
func FromValues(q url.Values) Filter {
	var f Filter

	if t, err := ParseTime(q.Get("startDate")); err == nil {
		f.Start = t
	}
	if t, err := ParseTimeEndOfDay(q.Get("endDate")); err == nil {
		f.End = t
	}
	if lvl, ok := models.ParseLogLevel(q.Get("level")); ok {
		f.Level = lvl
	}
	// The keyword is matched as sent; surrounding spaces are significant.
	f.Keyword = q.Get("keyword")

	return f
}

// Values encodes f as request parameters understood by FromValues.
func (f Filter) Values() url.Values {
	q := url.Values{}
	if !f.Start.IsZero() {
		q.Set("startDate", f.Start.Format(time.RFC3339Nano))
	}
	if !f.End.IsZero() {
		q.Set("endDate", f.End.Format(time.RFC3339Nano))
	}
	if f.Level != "" {
		q.Set("level", string(f.Level))
	}
	if f.Keyword != "" {
		q.Set("keyword", f.Keyword)
	}
	return q
}

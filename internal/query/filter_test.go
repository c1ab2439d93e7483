package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

func rec(ts time.Time, level models.LogLevel, msg string) *models.LogRecord {
	return &models.LogRecord{ID: "r", Timestamp: ts, Level: level, Source: "api", Message: msg}
}

func TestMatches(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		rec    *models.LogRecord
		filter Filter
		want   bool
	}{
		{"empty filter", rec(base, models.LevelInfo, "x"), Filter{}, true},
		{"start inclusive", rec(base, models.LevelInfo, "x"), Filter{Start: base}, true},
		{"before start", rec(base.Add(-time.Second), models.LevelInfo, "x"), Filter{Start: base}, false},
		{"end inclusive", rec(base, models.LevelInfo, "x"), Filter{End: base}, true},
		{"after end", rec(base.Add(time.Second), models.LevelInfo, "x"), Filter{End: base}, false},
		{"level match", rec(base, models.LevelError, "x"), Filter{Level: models.LevelError}, true},
		{"level mismatch", rec(base, models.LevelWarning, "x"), Filter{Level: models.LevelError}, false},
		{"keyword case insensitive", rec(base, models.LevelInfo, "Database TIMEOUT"), Filter{Keyword: "timeout"}, true},
		{"keyword missing", rec(base, models.LevelInfo, "all good"), Filter{Keyword: "timeout"}, false},
		{
			"all constraints",
			rec(base, models.LevelError, "disk full"),
			Filter{Start: base.Add(-time.Hour), End: base.Add(time.Hour), Level: models.LevelError, Keyword: "DISK"},
			true,
		},
		{
			"one constraint fails",
			rec(base, models.LevelError, "disk full"),
			Filter{Start: base.Add(-time.Hour), End: base.Add(time.Hour), Level: models.LevelInfo, Keyword: "disk"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.rec, tt.filter); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
			if got := tt.filter.Predicate()(tt.rec); got != tt.want {
				t.Errorf("Predicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromValues(t *testing.T) {
	q := url.Values{}
	q.Set("startDate", "2026-03-10T08:00:00Z")
	q.Set("endDate", "2026-03-11")
	q.Set("level", "WARN")
	q.Set("keyword", "  slow ")

	f := FromValues(q)

	wantStart := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if !f.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", f.Start, wantStart)
	}
	wantEnd := time.Date(2026, 3, 11, 23, 59, 59, 999999999, time.Local)
	if !f.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", f.End, wantEnd)
	}
	if f.Level != models.LevelWarning {
		t.Errorf("Level = %q, want warning", f.Level)
	}
	if f.Keyword != "  slow " {
		t.Errorf("Keyword = %q, want it unchanged", f.Keyword)
	}
}

func TestFromValues_KeywordKeepsSpaces(t *testing.T) {
	tests := []struct {
		keyword string
		message string
		want    bool
	}{
		{" fail ", "failure", false},
		{" fail ", "disk fail now", true},
		{"   ", "no gaps", false},
		{"   ", "a   b", true},
	}
	for _, tt := range tests {
		q := url.Values{}
		q.Set("keyword", tt.keyword)
		f := FromValues(q)
		if f.Keyword != tt.keyword {
			t.Errorf("Keyword = %q, want %q", f.Keyword, tt.keyword)
		}
		rec := &models.LogRecord{Level: models.LevelInfo, Message: tt.message}
		if got := Matches(rec, f); got != tt.want {
			t.Errorf("keyword %q on %q: Matches() = %v, want %v", tt.keyword, tt.message, got, tt.want)
		}
	}
}

func TestFromValues_Lenient(t *testing.T) {
	q := url.Values{}
	q.Set("startDate", "not-a-date")
	q.Set("endDate", "")
	q.Set("level", "verbose")

	f := FromValues(q)
	if !f.IsEmpty() {
		t.Errorf("malformed parameters should be ignored, got %+v", f)
	}
}

func TestFilter_ValuesRoundTrip(t *testing.T) {
	f := Filter{
		Start:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Level:   models.LevelError,
		Keyword: "panic",
	}
	got := FromValues(f.Values())
	if !got.Start.Equal(f.Start) || !got.End.Equal(f.End) || got.Level != f.Level || got.Keyword != f.Keyword {
		t.Errorf("round trip = %+v, want %+v", got, f)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2026-03-10", false},
		{"2026-03-10T10:30:00Z", false},
		{"2026-03-10T10:30:00.123456+02:00", false},
		{"", true},
		{"10/03/2026", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseTime(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

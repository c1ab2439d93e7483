package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   LogLevel
		wantOK bool
	}{
		{"info", LevelInfo, true},
		{"INFO", LevelInfo, true},
		{"notice", LevelInfo, true},
		{"warning", LevelWarning, true},
		{"Warn", LevelWarning, true},
		{"error", LevelError, true},
		{" ERR ", LevelError, true},
		{"debug", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLogLevel(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseLogLevel(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogRecord_Validate(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		rec     LogRecord
		wantErr bool
	}{
		{"valid", LogRecord{ID: "a", Timestamp: now, Level: LevelError}, false},
		{"missing id", LogRecord{Timestamp: now, Level: LevelInfo}, true},
		{"missing timestamp", LogRecord{ID: "a", Level: LevelInfo}, true},
		{"bad level", LogRecord{ID: "a", Timestamp: now, Level: "fatal"}, true},
		{"empty level", LogRecord{ID: "a", Timestamp: now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogRecord_UnmarshalNormalisesLevel(t *testing.T) {
	var rec LogRecord
	data := `{"id":"x","timestamp":"2026-01-02T03:04:05Z","level":"WARN","source":"db","message":"slow"}`
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Level != LevelWarning {
		t.Errorf("Level = %q, want %q", rec.Level, LevelWarning)
	}
	if rec.Source != "db" || rec.Message != "slow" {
		t.Errorf("unexpected record: %+v", rec)
	}

	// Unknown levels survive so Validate can reject them.
	if err := json.Unmarshal([]byte(`{"level":"trace"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Level != "trace" {
		t.Errorf("Level = %q, want trace", rec.Level)
	}
}

func TestLogRecord_Clone(t *testing.T) {
	orig := &LogRecord{ID: "1", Level: LevelInfo, Message: "hello"}
	c := orig.Clone()
	c.Message = "changed"
	if orig.Message != "hello" {
		t.Error("Clone should not share state with the original")
	}
}

func TestNewBookmark_CopiesRecord(t *testing.T) {
	rec := &LogRecord{ID: "log-1", Timestamp: time.Now(), Level: LevelError, Source: "api", Message: "boom"}
	b := NewBookmark(rec)

	if b.BookmarkID == "" || b.BookmarkID == rec.ID {
		t.Errorf("bookmark needs its own identity, got %q", b.BookmarkID)
	}
	rec.Message = "mutated"
	if b.Message != "boom" {
		t.Error("bookmark should be a point-in-time copy")
	}
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	if len(p.VisibleColumns) != 5 {
		t.Fatalf("expected 5 default columns, got %v", p.VisibleColumns)
	}
	p.VisibleColumns[0] = "x"
	if DefaultVisibleColumns[0] != "timestamp" {
		t.Error("DefaultPreferences must not alias the package defaults")
	}
	if p.ColumnWidths == nil {
		t.Error("ColumnWidths should be initialised")
	}
}

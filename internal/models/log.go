// Package models contains the core data structures for LogPulse.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log record.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Levels lists every accepted level in display order.
var Levels = []LogLevel{LevelError, LevelWarning, LevelInfo}

// IsValid reports whether l is one of the accepted levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError:
		return true
	default:
		return false
	}
}

// ParseLogLevel converts a string to LogLevel.
// Common aliases (warn, err, INFO, ...) are accepted; ok is false for
// anything that does not map onto info, warning or error.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info", "notice":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error", "err":
		return LevelError, true
	default:
		return "", false
	}
}

// LogRecord is a single structured log entry held by the log store.
// A stored record is never mutated; callers that need a modified copy
// must use Clone.
type LogRecord struct {
	// ID is the opaque unique identifier of the record.
	ID string `json:"id"`

	// Timestamp is when the log event occurred. Records may arrive
	// out of timestamp order.
	Timestamp time.Time `json:"timestamp"`

	// Level is the severity level of the record.
	Level LogLevel `json:"level"`

	// Source is a free-text origin tag (e.g. "frontend", "database").
	Source string `json:"source"`

	// Message is the free-text body.
	Message string `json:"message"`
}

// Validate checks that the record is well-formed.
func (r *LogRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if !r.Level.IsValid() {
		return fmt.Errorf("invalid level %q (expected info, warning or error)", r.Level)
	}
	return nil
}

// Clone returns a copy of the record.
func (r *LogRecord) Clone() *LogRecord {
	c := *r
	return &c
}

// IsError returns true if the record is at error level.
func (r *LogRecord) IsError() bool {
	return r.Level == LevelError
}

// String returns a one-line representation of the record.
func (r *LogRecord) String() string {
	return r.Timestamp.Format(time.RFC3339) + " [" + string(r.Level) + "] " + r.Source + ": " + r.Message
}

// UnmarshalJSON accepts level aliases and normalises them. Unknown levels
// are kept verbatim so Validate can report them.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	type plain LogRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if lvl, ok := ParseLogLevel(string(p.Level)); ok {
		p.Level = lvl
	}
	*r = LogRecord(p)
	return nil
}

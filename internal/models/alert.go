package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity represents alert severity level.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity converts a string to Severity, defaulting to error.
func ParseSeverity(s string) Severity {
	switch s {
	case "success":
		return SeveritySuccess
	case "info":
		return SeverityInfo
	case "warning", "warn":
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Alert is a notification raised when a threshold rule starts firing.
// Alerts are immutable once created.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`

	// Rule is the name of the rule that fired.
	Rule string `json:"rule,omitempty"`
	// Value is the observed count or ratio at firing time.
	Value float64 `json:"value,omitempty"`
}

// NewAlert creates an alert with a fresh ID.
func NewAlert(title, message string, severity Severity, at time.Time) *Alert {
	return &Alert{
		ID:        uuid.New().String(),
		Title:     title,
		Message:   message,
		Severity:  severity,
		Timestamp: at,
	}
}

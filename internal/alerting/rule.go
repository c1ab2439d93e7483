// Package alerting evaluates threshold rules over the recent log window and
// emits alerts with hysteresis so a sustained breach does not flood clients.
package alerting

import (
	"fmt"
	"time"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// RuleType defines how a rule measures the log window.
type RuleType string

const (
	// RuleTypeBurst holds when the number of matching records in the window
	// exceeds Threshold.
	RuleTypeBurst RuleType = "burst"
	// RuleTypeRatio holds when matching records make up more than Ratio of
	// all records in the window.
	RuleTypeRatio RuleType = "ratio"
)

// DefaultMaxFires caps how many alerts a single sustained breach can raise.
const DefaultMaxFires = 2

// Rule is a threshold rule evaluated against the log store on every tick.
type Rule struct {
	// Name is the unique identifier for the rule.
	Name string `yaml:"name"`
	// Description provides details about what the rule detects.
	Description string `yaml:"description,omitempty"`
	// Type is either "burst" or "ratio".
	Type RuleType `yaml:"type"`
	// Level selects the records counted against the threshold. Defaults to error.
	Level models.LogLevel `yaml:"level,omitempty"`
	// Window is the trailing time window (e.g., "10m", "1h").
	Window string `yaml:"window"`
	// Threshold is the count that must be exceeded for burst rules.
	Threshold int `yaml:"threshold,omitempty"`
	// Ratio is the fraction that must be exceeded for ratio rules.
	Ratio float64 `yaml:"ratio,omitempty"`
	// MaxFires caps alerts per breach. Defaults to DefaultMaxFires.
	MaxFires int `yaml:"max_fires,omitempty"`
	// RealertAfter is the minimum gap before a still-holding rule fires
	// again. Defaults to Window; "0s" fires on consecutive ticks.
	RealertAfter string `yaml:"realert_after,omitempty"`
	// Title and Message populate the emitted alert.
	Title   string `yaml:"title,omitempty"`
	Message string `yaml:"message,omitempty"`
	// Severity of the emitted alert. Defaults to error.
	Severity models.Severity `yaml:"severity,omitempty"`
	// Enabled controls whether the rule is active.
	Enabled *bool `yaml:"enabled,omitempty"`
	// Match is an optional expr-lang expression over level, source and
	// message. Records it rejects are left out of both counts, e.g.
	// `source == "db"` scopes a ratio rule to one source.
	Match string `yaml:"match,omitempty"`

	windowDuration  time.Duration
	realertDuration time.Duration
	matcher         *ExprMatcher
}

// RulesConfig represents the top-level YAML configuration.
type RulesConfig struct {
	Rules []*Rule `yaml:"rules"`
}

// IsEnabled returns whether the rule is enabled.
func (r *Rule) IsEnabled() bool {
	if r.Enabled == nil {
		return true
	}
	return *r.Enabled
}

// Validate validates the rule and fills defaults.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}

	switch r.Type {
	case "":
		return fmt.Errorf("rule type is required for rule %q", r.Name)
	case RuleTypeBurst:
		if r.Threshold < 0 {
			return fmt.Errorf("threshold must not be negative for rule %q", r.Name)
		}
	case RuleTypeRatio:
		if r.Ratio < 0 || r.Ratio >= 1 {
			return fmt.Errorf("ratio must be in [0, 1) for rule %q", r.Name)
		}
	default:
		return fmt.Errorf("invalid rule type %q for rule %q", r.Type, r.Name)
	}

	if r.Window == "" {
		return fmt.Errorf("window is required for rule %q", r.Name)
	}
	windowDur, err := time.ParseDuration(r.Window)
	if err != nil {
		return fmt.Errorf("invalid window %q for rule %q: %w", r.Window, r.Name, err)
	}
	if windowDur <= 0 {
		return fmt.Errorf("window must be positive for rule %q", r.Name)
	}
	r.windowDuration = windowDur

	if r.Level == "" {
		r.Level = models.LevelError
	}
	lvl, ok := models.ParseLogLevel(string(r.Level))
	if !ok {
		return fmt.Errorf("invalid level %q for rule %q", r.Level, r.Name)
	}
	r.Level = lvl

	if r.MaxFires == 0 {
		r.MaxFires = DefaultMaxFires
	}
	if r.MaxFires < 1 {
		return fmt.Errorf("max_fires must be positive for rule %q", r.Name)
	}

	r.realertDuration = windowDur
	if r.RealertAfter != "" {
		d, err := time.ParseDuration(r.RealertAfter)
		if err != nil {
			return fmt.Errorf("invalid realert_after %q for rule %q: %w", r.RealertAfter, r.Name, err)
		}
		if d < 0 {
			return fmt.Errorf("realert_after must not be negative for rule %q", r.Name)
		}
		r.realertDuration = d
	}

	if r.Severity == "" {
		r.Severity = models.SeverityError
	}
	r.Severity = models.ParseSeverity(string(r.Severity))

	if r.Title == "" {
		r.Title = r.Name
	}

	r.matcher = nil
	if r.Match != "" {
		m, err := NewExprMatcher(r.Match)
		if err != nil {
			return fmt.Errorf("invalid match for rule %q: %w", r.Name, err)
		}
		r.matcher = m
	}

	return nil
}

// inScope reports whether rec passes the rule's match expression. A record
// the expression fails on is out of scope.
func (r *Rule) inScope(rec *models.LogRecord) bool {
	if r.matcher == nil {
		return true
	}
	ok, err := r.matcher.Match(rec)
	return err == nil && ok
}

// WindowDuration returns the parsed window.
func (r *Rule) WindowDuration() time.Duration {
	return r.windowDuration
}

// Policy returns the hysteresis policy for the rule.
func (r *Rule) Policy() Policy {
	return Policy{MaxFires: r.MaxFires, RealertAfter: r.realertDuration}
}

// Holds reports whether the observation breaches the rule.
func (r *Rule) Holds(matched, total int) bool {
	switch r.Type {
	case RuleTypeBurst:
		return matched > r.Threshold
	case RuleTypeRatio:
		return total > 0 && float64(matched)/float64(total) > r.Ratio
	}
	return false
}

// value is the observed quantity reported on the alert.
func (r *Rule) value(matched, total int) float64 {
	if r.Type == RuleTypeRatio {
		if total == 0 {
			return 0
		}
		return float64(matched) / float64(total)
	}
	return float64(matched)
}

func (r *Rule) message(matched, total int) string {
	if r.Message != "" {
		return r.Message
	}
	if r.Type == RuleTypeRatio {
		return fmt.Sprintf("%s logs are %.0f%% of all logs in the last %s", r.Level, r.value(matched, total)*100, r.Window)
	}
	return fmt.Sprintf("%d %s logs in the last %s (threshold: %d)", matched, r.Level, r.Window, r.Threshold)
}

// DefaultRules returns the built-in error burst and error ratio rules.
func DefaultRules() []*Rule {
	rules := []*Rule{
		{
			Name:        "high-error-burst",
			Description: "Error volume over the last 10 minutes",
			Type:        RuleTypeBurst,
			Level:       models.LevelError,
			Window:      "10m",
			Threshold:   50,
			Title:       "High Error Rate",
			Message:     "More than 50 error logs in the last 10 minutes",
			Severity:    models.SeverityError,
		},
		{
			Name:        "error-ratio",
			Description: "Share of error logs over the last hour",
			Type:        RuleTypeRatio,
			Level:       models.LevelError,
			Window:      "1h",
			Ratio:       0.5,
			Title:       "High Error Rate",
			Message:     "Error logs exceed 50% of all logs in the last hour",
			Severity:    models.SeverityError,
		},
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			panic(err)
		}
	}
	return rules
}

// Package main provides the LogPulse server CLI.
package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// envPrefix prefixes every environment override, e.g.
// LOGPULSE_SERVER_HTTP_ADDRESS or LOGPULSE_ALERTING_EVALUATE_INTERVAL.
const envPrefix = "LOGPULSE"

// Config represents the server configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Alerting    AlertingConfig    `mapstructure:"alerting"`
	Hub         HubConfig         `mapstructure:"hub"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Notify      NotifyConfig      `mapstructure:"notify"`
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`        // API listen address (default: :8080)
	MetricsAddress    string        `mapstructure:"metrics_address"`     // Prometheus listen address; empty disables
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`     // CORS and WebSocket origins; empty allows all
	StreamMaxDuration time.Duration `mapstructure:"stream_max_duration"` // 0 keeps push connections open
	Verbose           bool          `mapstructure:"verbose"`             // log every request
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// StorageConfig contains log store settings.
type StorageConfig struct {
	MaxRecords    int           `mapstructure:"max_records"` // 0 means uncapped
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// AlertingConfig contains evaluator settings.
type AlertingConfig struct {
	EvaluateInterval time.Duration `mapstructure:"evaluate_interval"` // 0 evaluates on every ingest
	RulesFile        string        `mapstructure:"rules_file"`        // empty uses the built-in rules
	WatchRules       bool          `mapstructure:"watch_rules"`
	MaxAlerts        int           `mapstructure:"max_alerts"`
}

// HubConfig contains push fan-out settings.
type HubConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// IngestConfig contains ingest settings.
type IngestConfig struct {
	Files        []string `mapstructure:"files"`      // JSON-lines files to follow
	FromStart    bool     `mapstructure:"from_start"` // read existing file content first
	RateLimit    float64  `mapstructure:"rate_limit"` // POST requests per second per client; 0 disables
	Burst        int      `mapstructure:"burst"`
	MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
}

// PreferencesConfig selects the preference store.
type PreferencesConfig struct {
	Path string `mapstructure:"path"` // SQLite file; empty keeps preferences in memory
}

// NotifyConfig contains outbound alert notification settings.
type NotifyConfig struct {
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
	TeamsWebhookURL string `mapstructure:"teams_webhook_url"`
	WebhookURL      string `mapstructure:"webhook_url"`
	MaxPerMinute    int    `mapstructure:"max_per_minute"`
}

// setDefaults registers default values. Every key is registered so that
// environment overrides apply to keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.metrics_address", ":9090")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.stream_max_duration", "0s")
	v.SetDefault("server.verbose", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.max_records", 1_000_000)
	v.SetDefault("storage.retention", "120h")
	v.SetDefault("storage.sweep_interval", "24h")

	v.SetDefault("alerting.evaluate_interval", "5s")
	v.SetDefault("alerting.rules_file", "")
	v.SetDefault("alerting.watch_rules", true)
	v.SetDefault("alerting.max_alerts", 1000)

	v.SetDefault("hub.subscriber_buffer", 256)

	v.SetDefault("ingest.files", []string{})
	v.SetDefault("ingest.from_start", false)
	v.SetDefault("ingest.rate_limit", 50.0)
	v.SetDefault("ingest.burst", 100)
	v.SetDefault("ingest.max_body_bytes", 4<<20)

	v.SetDefault("preferences.path", "")

	v.SetDefault("notify.slack_webhook_url", "")
	v.SetDefault("notify.teams_webhook_url", "")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.max_per_minute", 10)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from an optional YAML file plus
// LOGPULSE_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// LOG_LEVEL overrides log.level.
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values only.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPAddress == "" {
		errs = append(errs, errors.New("server.http_address is required"))
	}
	if c.Server.MetricsAddress != "" && c.Server.MetricsAddress == c.Server.HTTPAddress {
		errs = append(errs, errors.New("server.metrics_address must differ from server.http_address"))
	}
	if c.Server.StreamMaxDuration < 0 {
		errs = append(errs, errors.New("server.stream_max_duration must not be negative"))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if c.Storage.MaxRecords < 0 {
		errs = append(errs, errors.New("storage.max_records must not be negative"))
	}
	if c.Storage.Retention <= 0 {
		errs = append(errs, errors.New("storage.retention must be positive"))
	}
	if c.Storage.SweepInterval <= 0 {
		errs = append(errs, errors.New("storage.sweep_interval must be positive"))
	}

	if c.Alerting.EvaluateInterval < 0 {
		errs = append(errs, errors.New("alerting.evaluate_interval must not be negative"))
	}
	if c.Alerting.MaxAlerts < 0 {
		errs = append(errs, errors.New("alerting.max_alerts must not be negative"))
	}

	if c.Hub.SubscriberBuffer <= 0 {
		errs = append(errs, errors.New("hub.subscriber_buffer must be positive"))
	}

	if c.Ingest.RateLimit < 0 {
		errs = append(errs, errors.New("ingest.rate_limit must not be negative"))
	}
	if c.Ingest.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("ingest.max_body_bytes must be positive"))
	}
	for _, f := range c.Ingest.Files {
		if strings.TrimSpace(f) == "" {
			errs = append(errs, errors.New("ingest.files must not contain empty paths"))
			break
		}
	}

	for key, raw := range map[string]string{
		"notify.slack_webhook_url": c.Notify.SlackWebhookURL,
		"notify.teams_webhook_url": c.Notify.TeamsWebhookURL,
		"notify.webhook_url":       c.Notify.WebhookURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s is not a valid URL", key))
		}
	}
	if c.Notify.MaxPerMinute < 0 {
		errs = append(errs, errors.New("notify.max_per_minute must not be negative"))
	}

	return errors.Join(errs...)
}

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("HTTPAddress = %q, want :8080", cfg.Server.HTTPAddress)
	}
	if cfg.Server.MetricsAddress != ":9090" {
		t.Errorf("MetricsAddress = %q, want :9090", cfg.Server.MetricsAddress)
	}
	if cfg.Storage.Retention != 120*time.Hour {
		t.Errorf("Retention = %v, want 120h", cfg.Storage.Retention)
	}
	if cfg.Storage.SweepInterval != 24*time.Hour {
		t.Errorf("SweepInterval = %v, want 24h", cfg.Storage.SweepInterval)
	}
	if cfg.Alerting.EvaluateInterval != 5*time.Second {
		t.Errorf("EvaluateInterval = %v, want 5s", cfg.Alerting.EvaluateInterval)
	}
	if cfg.Hub.SubscriberBuffer != 256 {
		t.Errorf("SubscriberBuffer = %d, want 256", cfg.Hub.SubscriberBuffer)
	}
	if cfg.Notify.MaxPerMinute != 10 {
		t.Errorf("MaxPerMinute = %d, want 10", cfg.Notify.MaxPerMinute)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	content := `
server:
  http_address: ":18080"
  metrics_address: ""
  allowed_origins:
    - https://dash.example.com
log:
  level: debug
  format: json
storage:
  max_records: 500
  retention: 48h
alerting:
  evaluate_interval: 0s
  max_alerts: 20
ingest:
  files:
    - /var/log/app.jsonl
  from_start: true
notify:
  teams_webhook_url: https://example.webhook.office.com/hook
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.HTTPAddress != ":18080" {
		t.Errorf("HTTPAddress = %q", cfg.Server.HTTPAddress)
	}
	if cfg.Server.MetricsAddress != "" {
		t.Errorf("MetricsAddress = %q, want disabled", cfg.Server.MetricsAddress)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://dash.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Storage.MaxRecords != 500 || cfg.Storage.Retention != 48*time.Hour {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	// Unset keys keep their defaults.
	if cfg.Storage.SweepInterval != 24*time.Hour {
		t.Errorf("SweepInterval = %v, want default 24h", cfg.Storage.SweepInterval)
	}
	if cfg.Alerting.EvaluateInterval != 0 {
		t.Errorf("EvaluateInterval = %v, want 0", cfg.Alerting.EvaluateInterval)
	}
	if cfg.Alerting.MaxAlerts != 20 {
		t.Errorf("MaxAlerts = %d, want 20", cfg.Alerting.MaxAlerts)
	}
	if len(cfg.Ingest.Files) != 1 || !cfg.Ingest.FromStart {
		t.Errorf("Ingest = %+v", cfg.Ingest)
	}
	if cfg.Notify.TeamsWebhookURL == "" {
		t.Error("TeamsWebhookURL not loaded")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LOGPULSE_SERVER_HTTP_ADDRESS", ":7000")
	t.Setenv("LOGPULSE_STORAGE_MAX_RECORDS", "42")
	t.Setenv("LOGPULSE_ALERTING_EVALUATE_INTERVAL", "1s")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.HTTPAddress != ":7000" {
		t.Errorf("HTTPAddress = %q, want :7000", cfg.Server.HTTPAddress)
	}
	if cfg.Storage.MaxRecords != 42 {
		t.Errorf("MaxRecords = %d, want 42", cfg.Storage.MaxRecords)
	}
	if cfg.Alerting.EvaluateInterval != time.Second {
		t.Errorf("EvaluateInterval = %v, want 1s", cfg.Alerting.EvaluateInterval)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing http address", func(c *Config) { c.Server.HTTPAddress = "" }, "server.http_address"},
		{"shared metrics address", func(c *Config) { c.Server.MetricsAddress = c.Server.HTTPAddress }, "metrics_address"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative max records", func(c *Config) { c.Storage.MaxRecords = -1 }, "storage.max_records"},
		{"zero retention", func(c *Config) { c.Storage.Retention = 0 }, "storage.retention"},
		{"negative evaluate interval", func(c *Config) { c.Alerting.EvaluateInterval = -time.Second }, "evaluate_interval"},
		{"zero subscriber buffer", func(c *Config) { c.Hub.SubscriberBuffer = 0 }, "subscriber_buffer"},
		{"empty file path", func(c *Config) { c.Ingest.Files = []string{" "} }, "ingest.files"},
		{"bad webhook url", func(c *Config) { c.Notify.WebhookURL = "not a url" }, "notify.webhook_url"},
		{"synchronous evaluation allowed", func(c *Config) { c.Alerting.EvaluateInterval = 0 }, ""},
		{"uncapped store allowed", func(c *Config) { c.Storage.MaxRecords = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.HTTPAddress = ""
	cfg.Hub.SubscriberBuffer = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.http_address", "hub.subscriber_buffer"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ScanIntervalSeconds != 5 {
		t.Errorf("scan_interval_seconds = %d, want 5", cfg.ScanIntervalSeconds)
	}
	if cfg.MaxConcurrentDevices != 5 {
		t.Errorf("max_concurrent_devices = %d, want 5", cfg.MaxConcurrentDevices)
	}
	if cfg.ReplyTimeoutSeconds != 10 {
		t.Errorf("reply_timeout_seconds = %d, want 10", cfg.ReplyTimeoutSeconds)
	}
	if cfg.MQTT.UserNo != "kh4423" {
		t.Errorf("mqtt.user_no = %q, want kh4423", cfg.MQTT.UserNo)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoadRequiresEnvVariable(t *testing.T) {
	t.Setenv("JOURNEYTRACK_CONFIG", "")
	os.Unsetenv("JOURNEYTRACK_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when JOURNEYTRACK_CONFIG not set, got nil")
	}
	if !strings.Contains(err.Error(), "JOURNEYTRACK_CONFIG") {
		t.Errorf("error should name the variable, got: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journeytrack.yaml")
	content := `
scan_interval_seconds: 15
database_path: /var/lib/journeytrack/data.db
mqtt:
  broker_url: tcp://broker.example.com:1883
  user_no: kh9999
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.ScanIntervalSeconds != 15 {
		t.Errorf("scan_interval_seconds = %d, want 15", cfg.ScanIntervalSeconds)
	}
	// Unset fields keep their defaults.
	if cfg.MaxConcurrentDevices != 5 {
		t.Errorf("max_concurrent_devices = %d, want default 5", cfg.MaxConcurrentDevices)
	}
	if cfg.MQTT.BrokerURL != "tcp://broker.example.com:1883" {
		t.Errorf("mqtt.broker_url = %q", cfg.MQTT.BrokerURL)
	}
	if cfg.MQTT.ClientIDPrefix != "journeytrack-poller" {
		t.Errorf("mqtt.client_id_prefix = %q, want default", cfg.MQTT.ClientIDPrefix)
	}
}

func TestLoadFileExpandsPathVariables(t *testing.T) {
	t.Setenv("JT_DATA", "/srv/journeytrack")

	path := filepath.Join(t.TempDir(), "journeytrack.yaml")
	content := `
database_path: ${JT_DATA}/poller.db
heartbeat_path: ${JT_STATE:-/tmp}/heartbeat.cbor
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DatabasePath != "/srv/journeytrack/poller.db" {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
	if cfg.HeartbeatPath != "/tmp/heartbeat.cbor" {
		t.Errorf("heartbeat_path = %q, want default expansion", cfg.HeartbeatPath)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsNonPositiveIntervals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero scan interval", func(c *Config) { c.ScanIntervalSeconds = 0 }, "scan_interval_seconds"},
		{"negative concurrency", func(c *Config) { c.MaxConcurrentDevices = -1 }, "max_concurrent_devices"},
		{"zero reply timeout", func(c *Config) { c.ReplyTimeoutSeconds = 0 }, "reply_timeout_seconds"},
		{"zero sweep interval", func(c *Config) { c.SessionSweepIntervalSeconds = 0 }, "session_sweep_interval_seconds"},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }, "database_path"},
		{"empty listen address", func(c *Config) { c.ListenAddress = "" }, "listen_address"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"empty broker url", func(c *Config) { c.MQTT.BrokerURL = "" }, "mqtt.broker_url"},
		{"empty user no", func(c *Config) { c.MQTT.UserNo = "" }, "mqtt.user_no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateJoinsAllFindings(t *testing.T) {
	cfg := Default()
	cfg.ScanIntervalSeconds = 0
	cfg.ReplyTimeoutSeconds = -3
	cfg.MQTT.UserNo = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"scan_interval_seconds", "reply_timeout_seconds", "mqtt.user_no"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error should mention %q, got: %v", want, err)
		}
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	if got := cfg.ScanInterval(); got != 5*time.Second {
		t.Errorf("ScanInterval() = %v, want 5s", got)
	}
	if got := cfg.ReplyTimeout(); got != 10*time.Second {
		t.Errorf("ReplyTimeout() = %v, want 10s", got)
	}
	if got := cfg.SessionSweepInterval(); got != 300*time.Second {
		t.Errorf("SessionSweepInterval() = %v, want 300s", got)
	}
}

func TestEnsurePathsCreatesParents(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.DatabasePath = filepath.Join(base, "nested", "data", "poller.db")
	cfg.HeartbeatPath = filepath.Join(base, "state", "heartbeat.cbor")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	for _, dir := range []string{filepath.Join(base, "nested", "data"), filepath.Join(base, "state")} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}

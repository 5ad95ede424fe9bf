// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the poller configuration. Zero values are filled from
// Default before the file is applied, so a partial file is fine.
type Config struct {
	// ScanIntervalSeconds is the fixed period of the scan scheduler.
	ScanIntervalSeconds int `yaml:"scan_interval_seconds"`

	// MaxConcurrentDevices caps the number of in-flight device
	// requests. One concurrency slot per request.
	MaxConcurrentDevices int `yaml:"max_concurrent_devices"`

	// ReplyTimeoutSeconds is how long a dispatched request waits for
	// its reply before the timeout sweep claims it.
	ReplyTimeoutSeconds int `yaml:"reply_timeout_seconds"`

	// SessionSweepIntervalSeconds is the period of the background
	// task that marks expired active sessions completed.
	SessionSweepIntervalSeconds int `yaml:"session_sweep_interval_seconds"`

	// DatabasePath is the SQLite database file holding sessions,
	// devices, and device logs.
	DatabasePath string `yaml:"database_path"`

	// ListenAddress is the status HTTP server's listen address.
	ListenAddress string `yaml:"listen_address"`

	// HeartbeatPath, when non-empty, enables the periodic CBOR
	// heartbeat file written for external supervisors.
	HeartbeatPath string `yaml:"heartbeat_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// MQTT configures the transport adapter.
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures the broker connection and the request/reply
// topic scheme.
type MQTTConfig struct {
	// BrokerURL is the broker address, e.g. tcp://host:1883.
	BrokerURL string `yaml:"broker_url"`

	// Username and Password authenticate against the broker. Both may
	// be empty for anonymous brokers.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// UserNo is the account number embedded in the reply subscription
	// (user/{user_no}/+/manage/get-configs-result) and sent as typeNo
	// in every request envelope.
	UserNo string `yaml:"user_no"`

	// ClientIDPrefix prefixes the broker client id. The full id is
	// "<prefix>-<user_no>-<unix time>" so restarts never collide.
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

// Default returns the default configuration, matching the deployed
// system's settings.
func Default() *Config {
	return &Config{
		ScanIntervalSeconds:         5,
		MaxConcurrentDevices:        5,
		ReplyTimeoutSeconds:         10,
		SessionSweepIntervalSeconds: 300,
		DatabasePath:                "journeytrack.db",
		ListenAddress:               ":8600",
		HeartbeatPath:               "",
		LogLevel:                    "info",
		MQTT: MQTTConfig{
			BrokerURL:      "tcp://127.0.0.1:1883",
			Username:       "",
			Password:       "",
			UserNo:         "kh4423",
			ClientIDPrefix: "journeytrack-poller",
		},
	}
}

// Load reads the path from JOURNEYTRACK_CONFIG. It fails when the
// variable is unset; callers with a -config flag should call LoadFile
// directly.
func Load() (*Config, error) {
	path := os.Getenv("JOURNEYTRACK_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("JOURNEYTRACK_CONFIG environment variable not set; " +
			"set it to the path of your journeytrack.yaml config file, or use the -config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of Default and expands
// ${VAR} patterns in path fields. The result is not yet validated;
// callers run Validate after applying any flag overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandPaths()
	return cfg, nil
}

// expandPaths expands ${VAR} and ${VAR:-default} in the path fields.
// Only paths get expansion; everything else is taken literally.
func (c *Config) expandPaths() {
	c.DatabasePath = expandVars(c.DatabasePath)
	c.HeartbeatPath = expandVars(c.HeartbeatPath)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Validate checks the configuration. All findings are reported
// together so an operator fixes the file in one pass.
func (c *Config) Validate() error {
	var errs []error

	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive integer, got %d", name, v))
		}
	}
	positive("scan_interval_seconds", c.ScanIntervalSeconds)
	positive("max_concurrent_devices", c.MaxConcurrentDevices)
	positive("reply_timeout_seconds", c.ReplyTimeoutSeconds)
	positive("session_sweep_interval_seconds", c.SessionSweepIntervalSeconds)

	if c.DatabasePath == "" {
		errs = append(errs, fmt.Errorf("database_path is required"))
	}
	if c.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("listen_address is required"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	if c.MQTT.BrokerURL == "" {
		errs = append(errs, fmt.Errorf("mqtt.broker_url is required"))
	}
	if c.MQTT.UserNo == "" {
		errs = append(errs, fmt.Errorf("mqtt.user_no is required"))
	}
	if c.MQTT.ClientIDPrefix == "" {
		errs = append(errs, fmt.Errorf("mqtt.client_id_prefix is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the parent directories of the database and
// heartbeat files so the poller can start on a fresh machine.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.DatabasePath, c.HeartbeatPath} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ScanInterval returns the scheduler period as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// ReplyTimeout returns the per-request reply deadline as a duration.
func (c *Config) ReplyTimeout() time.Duration {
	return time.Duration(c.ReplyTimeoutSeconds) * time.Second
}

// SessionSweepInterval returns the expired-session sweep period.
func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.SessionSweepIntervalSeconds) * time.Second
}

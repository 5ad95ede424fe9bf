// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/journeytrack/journeytrack/lib/clock"
	"github.com/journeytrack/journeytrack/lib/config"
	"github.com/journeytrack/journeytrack/lib/logstore"
	"github.com/journeytrack/journeytrack/lib/process"
	"github.com/journeytrack/journeytrack/lib/service"
	"github.com/journeytrack/journeytrack/lib/version"
)

const serviceName = "journeytrack-poller"

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "path to the YAML config file (defaults to $JOURNEYTRACK_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print(serviceName)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	clk := clock.Real()

	store, err := logstore.Open(logstore.Config{
		Path:   cfg.DatabasePath,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	// The transport delivers replies into the engine; the engine sends
	// requests through the transport. The handler closure breaks the
	// construction cycle: it only fires after Connect, by which time
	// the engine exists.
	var engine *Engine
	transport := newMQTTTransport(mqttTransportConfig{
		BrokerURL:      cfg.MQTT.BrokerURL,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		UserNo:         cfg.MQTT.UserNo,
		ClientIDPrefix: cfg.MQTT.ClientIDPrefix,
		Handler: func(correlationID string, payload []byte) {
			engine.HandleReply(correlationID, payload)
		},
		Clock:  clk,
		Logger: logger,
	})
	engine = NewEngine(EngineConfig{
		Sessions:      store,
		Logs:          store,
		Transport:     transport,
		Clock:         clk,
		Logger:        logger,
		UserNo:        cfg.MQTT.UserNo,
		ScanInterval:  cfg.ScanInterval(),
		ReplyTimeout:  cfg.ReplyTimeout(),
		MaxConcurrent: cfg.MaxConcurrentDevices,
	})

	if err := transport.Connect(ctx); err != nil {
		return err
	}
	defer transport.Disconnect()

	// runCtx lets a fatal engine error take the background tasks down
	// with it even though the signal context is still live.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address: cfg.ListenAddress,
		Handler: newHTTPHandler(engine, newMetricsRegistry(engine)),
		Logger:  logger,
	})
	httpDone := make(chan error, 1)
	go func() {
		httpDone <- httpServer.Serve(runCtx)
	}()

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		runSessionSweeper(runCtx, store, cfg.SessionSweepInterval(), clk, logger)
	}()
	if cfg.HeartbeatPath != "" {
		background.Add(1)
		go func() {
			defer background.Done()
			runHeartbeat(runCtx, cfg.HeartbeatPath, engine, clk, logger)
		}()
	}

	logger.Info("journeytrack poller running",
		"scan_interval", cfg.ScanInterval(),
		"max_concurrent", cfg.MaxConcurrentDevices,
		"reply_timeout", cfg.ReplyTimeout(),
		"listen", cfg.ListenAddress,
		"broker", cfg.MQTT.BrokerURL,
		"database", cfg.DatabasePath,
	)

	err = engine.Run(runCtx)

	logger.Info("shutting down")
	cancel()
	background.Wait()
	if httpErr := <-httpDone; httpErr != nil {
		logger.Error("status server error", "error", httpErr)
	}
	return err
}

// loadConfig resolves the configuration: the -config flag wins, then
// $JOURNEYTRACK_CONFIG, then built-in defaults.
func loadConfig(configPath string) (*config.Config, error) {
	switch {
	case configPath != "":
		return config.LoadFile(configPath)
	case os.Getenv("JOURNEYTRACK_CONFIG") != "":
		return config.Load()
	default:
		return config.Default(), nil
	}
}

// newLogger builds the process logger: text on stderr at the
// configured level. The level string is validated with the rest of the
// configuration, so unknown values cannot reach here from run.
func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/journeytrack/journeytrack/lib/clock"
	"github.com/journeytrack/journeytrack/lib/codec"
	"github.com/journeytrack/journeytrack/lib/statefile"
)

// heartbeatInterval is how often the heartbeat file is rewritten.
const heartbeatInterval = 30 * time.Second

// heartbeat is the CBOR document external supervisors read to judge
// the poller's health. The poller only ever writes it.
type heartbeat struct {
	PID       int            `cbor:"pid"`
	StartedAt time.Time      `cbor:"started_at"`
	WrittenAt time.Time      `cbor:"written_at"`
	Status    statusResponse `cbor:"status"`
}

// runHeartbeat writes the heartbeat file every heartbeatInterval and
// once more on shutdown, so a supervisor can tell a clean stop from a
// crash. Write failures are logged and retried on the next tick.
func runHeartbeat(ctx context.Context, path string, e *Engine, clk clock.Clock, logger *slog.Logger) {
	ticker := clk.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			writeHeartbeat(path, e, clk, logger)
			return
		case <-ticker.C:
		}
		writeHeartbeat(path, e, clk, logger)
	}
}

// writeHeartbeat encodes and atomically replaces the heartbeat file.
func writeHeartbeat(path string, e *Engine, clk clock.Clock, logger *slog.Logger) {
	data, err := codec.Marshal(heartbeat{
		PID:       os.Getpid(),
		StartedAt: e.startedAt,
		WrittenAt: clk.Now(),
		Status:    e.statusSnapshot(),
	})
	if err != nil {
		logger.Error("encoding heartbeat", "error", err)
		return
	}
	if err := statefile.Write(path, data, 0o644); err != nil {
		logger.Warn("heartbeat write failed", "path", path, "error", err)
	}
}

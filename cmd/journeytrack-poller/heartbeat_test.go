// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/journeytrack/journeytrack/lib/codec"
	"github.com/journeytrack/journeytrack/lib/testutil"
)

func TestWriteHeartbeat(t *testing.T) {
	e := newTestEngine(t, 5)
	e.seedActiveSession(t, 1, "veh-1", "860000000000001")
	if err := e.engine.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	path := filepath.Join(t.TempDir(), "heartbeat.cbor")
	writeHeartbeat(path, e.engine, e.clk, slog.New(slog.NewTextHandler(io.Discard, nil)))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading heartbeat: %v", err)
	}
	var beat heartbeat
	if err := codec.Unmarshal(data, &beat); err != nil {
		t.Fatalf("decoding heartbeat: %v", err)
	}
	if beat.PID != os.Getpid() {
		t.Fatalf("pid = %d, want %d", beat.PID, os.Getpid())
	}
	if !beat.WrittenAt.Equal(engineBase) {
		t.Fatalf("written_at = %v, want %v", beat.WrittenAt, engineBase)
	}
	if !beat.StartedAt.Equal(engineBase) {
		t.Fatalf("started_at = %v, want %v", beat.StartedAt, engineBase)
	}
	if beat.Status.RequestsSent != 1 {
		t.Fatalf("status.requests_sent = %d, want 1", beat.Status.RequestsSent)
	}
	if beat.Status.PendingRequests != 1 {
		t.Fatalf("status.pending_requests = %d, want 1", beat.Status.PendingRequests)
	}
}

func TestRunHeartbeatWritesOnShutdown(t *testing.T) {
	e := newTestEngine(t, 5)
	path := filepath.Join(t.TempDir(), "heartbeat.cbor")

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		runHeartbeat(ctx, path, e.engine, e.clk, slog.New(slog.DiscardHandler))
		close(done)
	}()

	// No ticks have fired; cancellation alone must produce the final
	// heartbeat.
	e.clk.WaitForTimers(1)
	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "waiting for heartbeat writer to stop")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("heartbeat file missing after shutdown: %v", err)
	}
	var beat heartbeat
	if err := codec.Unmarshal(data, &beat); err != nil {
		t.Fatalf("decoding heartbeat: %v", err)
	}
	if beat.Status.Status != "stopped" {
		t.Fatalf("status = %q, want stopped", beat.Status.Status)
	}
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/journeytrack/journeytrack/lib/clock"
)

// sessionEnder marks expired active sessions completed. The log store
// implements it.
type sessionEnder interface {
	EndExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// runSessionSweeper moves sessions whose window has closed from active
// to completed, every interval, until ctx is cancelled. The poller
// stops dispatching to a session as soon as it leaves the active
// window; this sweep settles the session rows themselves. Failures are
// logged and retried on the next pass.
func runSessionSweeper(ctx context.Context, store sessionEnder, interval time.Duration, clk clock.Clock, logger *slog.Logger) {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		completed, err := store.EndExpiredSessions(ctx, clk.Now())
		if err != nil {
			logger.Error("session sweep failed", "error", err)
			continue
		}
		if completed > 0 {
			logger.Info("completed expired sessions", "count", completed)
		}
	}
}

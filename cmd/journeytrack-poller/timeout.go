// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/journeytrack/journeytrack/lib/logstore"
)

// timeoutSweepInterval is how often expired pending requests are
// claimed as timed out. Much shorter than the reply timeout, so a
// timeout record's collected-at lands close to the actual deadline.
const timeoutSweepInterval = time.Second

// runTimeoutSweep claims expired requests until ctx is cancelled. It
// runs on its own goroutine and ticker, independent of the scan loop,
// so timeouts fire on schedule even while a slow cycle is in progress.
func (e *Engine) runTimeoutSweep(ctx context.Context) {
	ticker := e.clock.NewTicker(timeoutSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		e.sweepExpired(ctx)
	}
}

// sweepExpired performs one timeout pass: claim every pending request
// past its deadline and persist a timeout record for each.
func (e *Engine) sweepExpired(ctx context.Context) {
	now := e.clock.Now()
	for _, entry := range e.table.claimExpired(now) {
		e.logger.Warn("telemetry request timed out",
			"correlation_id", entry.correlationID,
			"session_id", entry.sessionID,
			"imei", entry.deviceIMEI,
			"waited", now.Sub(entry.issuedAt),
		)
		e.finishRequest(ctx, entry, logstore.OutcomeTimeout, nil,
			fmt.Sprintf("no reply within %s", e.replyTimeout))
	}
}

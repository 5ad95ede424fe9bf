// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/journeytrack/journeytrack/lib/logstore"
)

// logSink persists device log records. The engine depends on this
// interface so tests can inject storage failures; production passes
// the log store.
type logSink interface {
	InsertDeviceLog(ctx context.Context, record logstore.DeviceLog) (bool, error)
}

// finishRequest persists the terminal record for a claimed request and
// releases its dispatch slot. Exactly one finishRequest runs per
// request; the correlation table's first-wins claim guarantees it.
func (e *Engine) finishRequest(ctx context.Context, entry *pendingRequest, outcome logstore.Outcome, payload []byte, detail string) {
	switch outcome {
	case logstore.OutcomeReply:
		e.repliesResolved.Add(1)
	case logstore.OutcomeTimeout:
		e.requestsTimedOut.Add(1)
	case logstore.OutcomeError:
		e.requestsFailed.Add(1)
	}

	e.persistRecord(ctx, logstore.DeviceLog{
		CorrelationID: entry.correlationID,
		SessionID:     entry.sessionID,
		DeviceIMEI:    entry.deviceIMEI,
		Outcome:       outcome,
		Payload:       payload,
		Detail:        detail,
		CollectedAt:   e.clock.Now(),
	})
	e.releaseSlot()
}

// persistRecord writes one device log record, retrying once
// immediately on a storage failure. When the retry also fails the
// record is dropped and logged with its correlation id; losing a
// single poll result is preferable to stalling the engine.
func (e *Engine) persistRecord(ctx context.Context, record logstore.DeviceLog) {
	inserted, err := e.logs.InsertDeviceLog(ctx, record)
	if err != nil {
		e.logger.Warn("device log insert failed, retrying",
			"correlation_id", record.CorrelationID, "error", err)
		inserted, err = e.logs.InsertDeviceLog(ctx, record)
	}
	if err != nil {
		e.recordsDropped.Add(1)
		e.logger.Error("device log dropped after retry",
			"correlation_id", record.CorrelationID,
			"session_id", record.SessionID,
			"outcome", record.Outcome,
			"error", err,
		)
		return
	}
	if !inserted {
		// The correlation id already has a row. The table's claim
		// makes this unreachable from the engine's own paths; it can
		// only mean a record survived from a previous process run.
		e.logger.Warn("device log already persisted",
			"correlation_id", record.CorrelationID, "outcome", record.Outcome)
		return
	}
	e.recordsPersisted.Add(1)
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/journeytrack/journeytrack/lib/logstore"
	"github.com/journeytrack/journeytrack/lib/telemetry"
)

// dispatchOutcome says what happened to one session within a cycle.
type dispatchOutcome int

const (
	dispatchSent dispatchOutcome = iota
	dispatchSendFailed
	dispatchAlreadyPending
	dispatchNoSlot
	dispatchNoDevice
)

// dispatch issues one telemetry request for session, or skips it. The
// checks run in a fixed order: an already-pending session never
// consumes a slot, and a session without a device releases its slot
// untouched (no record is persisted for it; the condition heals when
// the device is registered). The returned error is reserved for
// duplicate correlation-id registration, which callers treat as fatal.
func (e *Engine) dispatch(ctx context.Context, session logstore.ActiveSession) (dispatchOutcome, error) {
	if e.table.pendingFor(session.ID) {
		e.logger.Debug("session already pending, skipping", "session_id", session.ID)
		return dispatchAlreadyPending, nil
	}

	select {
	case e.slots <- struct{}{}:
	default:
		e.logger.Debug("no free dispatch slot, skipping until next scan", "session_id", session.ID)
		return dispatchNoSlot, nil
	}

	if session.DeviceIMEI == "" {
		e.releaseSlot()
		e.logger.Warn("session has no registered device, skipping",
			"session_id", session.ID, "vehicle_id", session.VehicleID)
		return dispatchNoDevice, nil
	}

	now := e.clock.Now()
	entry := &pendingRequest{
		correlationID: e.mintCorrelationID(),
		sessionID:     session.ID,
		deviceIMEI:    session.DeviceIMEI,
		issuedAt:      now,
		deadline:      now.Add(e.replyTimeout),
	}
	if err := e.table.register(entry); err != nil {
		e.releaseSlot()
		return dispatchAlreadyPending, fmt.Errorf("registering request for session %d: %w", session.ID, err)
	}

	payload, err := json.Marshal(telemetry.NewRequest(entry.correlationID, e.userNo, now))
	if err == nil {
		err = e.transport.Publish(ctx, session.DeviceIMEI, payload)
	}
	if err != nil {
		// The request never reached the device; resolve it now rather
		// than letting it ride out the reply timeout. A concurrent
		// claim (a stray reply for this id) wins per table rules.
		if claimed, ok := e.table.claim(entry.correlationID, stateFailed); ok {
			e.logger.Warn("telemetry request send failed",
				"correlation_id", claimed.correlationID,
				"session_id", claimed.sessionID,
				"imei", claimed.deviceIMEI,
				"error", err,
			)
			e.finishRequest(ctx, claimed, logstore.OutcomeError, nil,
				fmt.Sprintf("sending request: %v", err))
		}
		return dispatchSendFailed, nil
	}

	e.requestsSent.Add(1)
	e.logger.Debug("telemetry request dispatched",
		"correlation_id", entry.correlationID,
		"session_id", session.ID,
		"imei", session.DeviceIMEI,
		"deadline", entry.deadline,
	)
	return dispatchSent, nil
}

// releaseSlot returns one dispatch slot to the pool. Every slot is
// released exactly once: by finishRequest when its request reaches a
// terminal state, or directly on the no-device path that never
// registered a request.
func (e *Engine) releaseSlot() {
	<-e.slots
}

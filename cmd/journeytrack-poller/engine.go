// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/journeytrack/journeytrack/lib/clock"
	"github.com/journeytrack/journeytrack/lib/logstore"
	"github.com/journeytrack/journeytrack/lib/telemetry"
)

// sessionSource lists the journey sessions eligible for polling. The
// engine depends on this interface so tests can inject query failures;
// production passes the log store.
type sessionSource interface {
	ActiveSessions(ctx context.Context, now time.Time) ([]logstore.ActiveSession, error)
}

// Engine is the scan-dispatch-correlate-persist core. A fixed-period
// scan discovers active sessions and dispatches one telemetry request
// per session, bounded by a slot pool; replies, timeouts, and send
// failures race through the correlation table; the winner persists
// exactly one device log record per request.
type Engine struct {
	sessions  sessionSource
	logs      logSink
	transport Transport
	clock     clock.Clock
	logger    *slog.Logger

	userNo       string
	scanInterval time.Duration
	replyTimeout time.Duration

	table *correlationTable

	// slots bounds in-flight requests. Acquire is non-blocking: a
	// cycle that finds the pool empty skips the session.
	slots chan struct{}

	// mintCorrelationID mints request correlation ids. Tests override
	// it for deterministic ids.
	mintCorrelationID func() string

	// Cumulative counters since process start, read concurrently by
	// the status handlers and the metrics collectors.
	cyclesRun        atomic.Uint64
	ticksSkipped     atomic.Uint64
	requestsSent     atomic.Uint64
	repliesResolved  atomic.Uint64
	requestsTimedOut atomic.Uint64
	requestsFailed   atomic.Uint64
	lateReplies      atomic.Uint64
	recordsPersisted atomic.Uint64
	recordsDropped   atomic.Uint64

	// running is true while Run is on its loop; cycleRunning is true
	// while a scan cycle is in progress.
	running      atomic.Bool
	cycleRunning atomic.Bool

	mu        sync.Mutex
	lastCycle ScanCycle

	startedAt time.Time
}

// ScanCycle is the snapshot of one completed scan cycle, kept for the
// status surface.
type ScanCycle struct {
	StartedAt       time.Time
	SessionsFound   int
	Dispatched      int
	SkippedPending  int
	SkippedNoSlot   int
	SkippedNoDevice int
	Duration        time.Duration
}

// EngineConfig carries the engine's collaborators and tuning. All
// fields are required; values come from the validated service
// configuration.
type EngineConfig struct {
	Sessions      sessionSource
	Logs          logSink
	Transport     Transport
	Clock         clock.Clock
	Logger        *slog.Logger
	UserNo        string
	ScanInterval  time.Duration
	ReplyTimeout  time.Duration
	MaxConcurrent int
}

// NewEngine builds an Engine. Missing collaborators are programmer
// errors and panic.
func NewEngine(config EngineConfig) *Engine {
	if config.Sessions == nil {
		panic("poller: EngineConfig.Sessions is required")
	}
	if config.Logs == nil {
		panic("poller: EngineConfig.Logs is required")
	}
	if config.Transport == nil {
		panic("poller: EngineConfig.Transport is required")
	}
	if config.Clock == nil {
		panic("poller: EngineConfig.Clock is required")
	}
	if config.Logger == nil {
		panic("poller: EngineConfig.Logger is required")
	}
	if config.UserNo == "" {
		panic("poller: EngineConfig.UserNo is required")
	}
	if config.ScanInterval <= 0 || config.ReplyTimeout <= 0 || config.MaxConcurrent <= 0 {
		panic("poller: EngineConfig intervals and concurrency must be positive")
	}

	return &Engine{
		sessions:          config.Sessions,
		logs:              config.Logs,
		transport:         config.Transport,
		clock:             config.Clock,
		logger:            config.Logger,
		userNo:            config.UserNo,
		scanInterval:      config.ScanInterval,
		replyTimeout:      config.ReplyTimeout,
		table:             newCorrelationTable(),
		slots:             make(chan struct{}, config.MaxConcurrent),
		mintCorrelationID: telemetry.NewCorrelationID,
		startedAt:         config.Clock.Now(),
	}
}

// Run drives the engine until ctx is cancelled: the scan loop on the
// calling goroutine, the timeout sweep on its own. The only error it
// returns is a duplicate correlation-id registration, which indicates
// an internal defect; every operational failure is logged and retried
// on a later tick. In-flight requests at shutdown are abandoned, not
// force-persisted.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)

	// The sweep must stop when the scan loop exits for any reason,
	// including a fatal dispatch error; stopSweep is deferred after the
	// Wait so it runs first.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer stopSweep()
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.runTimeoutSweep(sweepCtx)
	}()

	ticker := e.clock.NewTicker(e.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := e.runCycle(ctx); err != nil {
			return err
		}

		// The ticker buffers at most one tick. One that fired while
		// the cycle ran would start the next cycle immediately; drain
		// it so cycles never queue.
		select {
		case <-ticker.C:
			e.ticksSkipped.Add(1)
		default:
		}
	}
}

// runCycle performs one scan: query active sessions and hand each to
// the dispatcher in ascending session-id order. A session query
// failure ends the cycle early; the next tick retries.
func (e *Engine) runCycle(ctx context.Context) error {
	started := e.clock.Now()
	e.cycleRunning.Store(true)
	defer e.cycleRunning.Store(false)
	e.cyclesRun.Add(1)

	sessions, err := e.sessions.ActiveSessions(ctx, started)
	if err != nil {
		e.logger.Error("active session query failed, retrying next scan", "error", err)
		return nil
	}

	cycle := ScanCycle{StartedAt: started, SessionsFound: len(sessions)}
	for _, session := range sessions {
		if ctx.Err() != nil {
			break
		}
		outcome, err := e.dispatch(ctx, session)
		if err != nil {
			return err
		}
		switch outcome {
		case dispatchSent, dispatchSendFailed:
			cycle.Dispatched++
		case dispatchAlreadyPending:
			cycle.SkippedPending++
		case dispatchNoSlot:
			cycle.SkippedNoSlot++
		case dispatchNoDevice:
			cycle.SkippedNoDevice++
		}
	}
	cycle.Duration = e.clock.Now().Sub(started)

	e.mu.Lock()
	e.lastCycle = cycle
	e.mu.Unlock()

	level := slog.LevelDebug
	if cycle.Dispatched > 0 || cycle.SkippedNoSlot > 0 || cycle.SkippedNoDevice > 0 {
		level = slog.LevelInfo
	}
	e.logger.Log(ctx, level, "scan cycle complete",
		"sessions", cycle.SessionsFound,
		"dispatched", cycle.Dispatched,
		"skipped_pending", cycle.SkippedPending,
		"skipped_no_slot", cycle.SkippedNoSlot,
		"skipped_no_device", cycle.SkippedNoDevice,
		"pending", e.table.pendingCount(),
		"duration", cycle.Duration,
	)
	return nil
}

// HandleReply is the transport's resolution callback. It parses the
// reply envelope, claims the pending request, and persists the
// envelope's data member verbatim. Late and unknown replies are
// counted and discarded; a reply that fails envelope parsing claims
// its request as failed so nothing waits out the full timeout on a
// garbled answer.
//
// Replies arrive on the transport's delivery goroutine, outside any
// request context.
func (e *Engine) HandleReply(correlationID string, payload []byte) {
	ctx := context.Background()

	reply, body, err := telemetry.ParseReply(payload)
	if err != nil {
		entry, ok := e.table.claim(correlationID, stateFailed)
		if !ok {
			e.lateReplies.Add(1)
			e.logger.Debug("discarding unmatched malformed reply",
				"correlation_id", correlationID, "error", err)
			return
		}
		e.logger.Warn("telemetry reply failed envelope parse",
			"correlation_id", correlationID,
			"session_id", entry.sessionID,
			"imei", entry.deviceIMEI,
			"error", err,
		)
		e.finishRequest(ctx, entry, logstore.OutcomeError, nil,
			fmt.Sprintf("parsing reply envelope: %v", err))
		return
	}

	entry, ok := e.table.claim(correlationID, stateResolved)
	if !ok {
		e.lateReplies.Add(1)
		e.logger.Debug("discarding late or unknown reply", "correlation_id", correlationID)
		return
	}

	e.finishRequest(ctx, entry, logstore.OutcomeReply, body, "")

	e.logger.Debug("telemetry reply resolved",
		"correlation_id", correlationID,
		"session_id", entry.sessionID,
		"imei", entry.deviceIMEI,
		"latency", e.clock.Now().Sub(entry.issuedAt),
	)
	if gps := reply.Data.GPS; gps != nil {
		e.logger.Info("device position",
			"session_id", entry.sessionID,
			"imei", entry.deviceIMEI,
			"latitude", gps.LatitudeStr,
			"longitude", gps.LongitudeStr,
			"speed", gps.Speed,
		)
	}
}

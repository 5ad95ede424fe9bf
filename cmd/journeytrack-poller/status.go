// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/journeytrack/journeytrack/lib/version"
)

// bannerResponse is the GET / payload.
type bannerResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// healthResponse is the GET /health payload.
type healthResponse struct {
	Status              string    `json:"status"`
	Timestamp           time.Time `json:"timestamp"`
	ProcessorRunning    bool      `json:"processor_running"`
	TransportConnected  bool      `json:"transport_connected"`
	ScanIntervalSeconds float64   `json:"scan_interval_seconds"`
}

// statusResponse is the GET /status payload: the full read-only
// engine snapshot.
type statusResponse struct {
	Status               string       `json:"status"`
	UptimeSeconds        float64      `json:"uptime_seconds"`
	TransportConnected   bool         `json:"transport_connected"`
	CycleRunning         bool         `json:"cycle_running"`
	PendingRequests      int          `json:"pending_requests"`
	CyclesRun            uint64       `json:"cycles_run"`
	TicksSkipped         uint64       `json:"ticks_skipped"`
	RequestsSent         uint64       `json:"requests_sent"`
	RepliesResolved      uint64       `json:"replies_resolved"`
	RequestsTimedOut     uint64       `json:"requests_timed_out"`
	RequestsFailed       uint64       `json:"requests_failed"`
	LateReplies          uint64       `json:"late_replies"`
	RecordsPersisted     uint64       `json:"records_persisted"`
	RecordsDropped       uint64       `json:"records_dropped"`
	LastCycle            *cycleStatus `json:"last_cycle,omitempty"`
	ScanIntervalSeconds  float64      `json:"scan_interval_seconds"`
	MaxConcurrentDevices int          `json:"max_concurrent_devices"`
	ReplyTimeoutSeconds  float64      `json:"reply_timeout_seconds"`
}

// cycleStatus is the last completed scan cycle within statusResponse.
type cycleStatus struct {
	StartedAt       time.Time `json:"started_at"`
	SessionsFound   int       `json:"sessions_found"`
	Dispatched      int       `json:"dispatched"`
	SkippedPending  int       `json:"skipped_pending"`
	SkippedNoSlot   int       `json:"skipped_no_slot"`
	SkippedNoDevice int       `json:"skipped_no_device"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// statusSnapshot assembles the current engine state. Counters are
// loaded individually, so the snapshot is not a single atomic cut;
// the surface is informational, not transactional.
func (e *Engine) statusSnapshot() statusResponse {
	status := "running"
	if !e.running.Load() {
		status = "stopped"
	}

	response := statusResponse{
		Status:               status,
		UptimeSeconds:        e.clock.Now().Sub(e.startedAt).Seconds(),
		TransportConnected:   e.transport.Connected(),
		CycleRunning:         e.cycleRunning.Load(),
		PendingRequests:      e.table.pendingCount(),
		CyclesRun:            e.cyclesRun.Load(),
		TicksSkipped:         e.ticksSkipped.Load(),
		RequestsSent:         e.requestsSent.Load(),
		RepliesResolved:      e.repliesResolved.Load(),
		RequestsTimedOut:     e.requestsTimedOut.Load(),
		RequestsFailed:       e.requestsFailed.Load(),
		LateReplies:          e.lateReplies.Load(),
		RecordsPersisted:     e.recordsPersisted.Load(),
		RecordsDropped:       e.recordsDropped.Load(),
		ScanIntervalSeconds:  e.scanInterval.Seconds(),
		MaxConcurrentDevices: cap(e.slots),
		ReplyTimeoutSeconds:  e.replyTimeout.Seconds(),
	}

	e.mu.Lock()
	last := e.lastCycle
	e.mu.Unlock()
	if !last.StartedAt.IsZero() {
		response.LastCycle = &cycleStatus{
			StartedAt:       last.StartedAt,
			SessionsFound:   last.SessionsFound,
			Dispatched:      last.Dispatched,
			SkippedPending:  last.SkippedPending,
			SkippedNoSlot:   last.SkippedNoSlot,
			SkippedNoDevice: last.SkippedNoDevice,
			DurationSeconds: last.Duration.Seconds(),
		}
	}
	return response
}

// newHTTPHandler builds the read-only status surface: service banner,
// liveness, full status snapshot, and Prometheus metrics. There are no
// write endpoints.
func newHTTPHandler(e *Engine, registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", e.handleBanner)
	mux.HandleFunc("/health", e.handleHealth)
	mux.HandleFunc("/status", e.handleStatus)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

func (e *Engine) handleBanner(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bannerResponse{
		Status:  "running",
		Service: serviceName,
		Message: "JourneyTrack telemetry poller",
		Version: version.Short(),
	})
}

func (e *Engine) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	running := e.running.Load()
	status := "healthy"
	if !running {
		status = "stopped"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:              status,
		Timestamp:           e.clock.Now(),
		ProcessorRunning:    running,
		TransportConnected:  e.transport.Connected(),
		ScanIntervalSeconds: e.scanInterval.Seconds(),
	})
}

func (e *Engine) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(e.statusSnapshot())
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// newMetricsRegistry builds a registry whose collectors read the
// engine's own counters, so /metrics and /status can never disagree.
// The registry is private to this process; the default global registry
// is avoided so tests can build engines freely.
func newMetricsRegistry(e *Engine) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	counter := func(name, help string, load func() uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "journeytrack",
			Subsystem: "poller",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(load()) })
	}
	gauge := func(name, help string, load func() float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "journeytrack",
			Subsystem: "poller",
			Name:      name,
			Help:      help,
		}, load)
	}

	registry.MustRegister(
		counter("cycles_run_total",
			"Scan cycles started.", e.cyclesRun.Load),
		counter("ticks_skipped_total",
			"Scan ticks skipped because the previous cycle was still running.", e.ticksSkipped.Load),
		counter("requests_sent_total",
			"Telemetry requests published to devices.", e.requestsSent.Load),
		counter("replies_resolved_total",
			"Requests resolved by a device reply.", e.repliesResolved.Load),
		counter("requests_timed_out_total",
			"Requests claimed by the timeout sweep.", e.requestsTimedOut.Load),
		counter("requests_failed_total",
			"Requests that failed to send or carried an unparsable reply.", e.requestsFailed.Load),
		counter("late_replies_total",
			"Replies discarded because their request was already claimed or unknown.", e.lateReplies.Load),
		counter("records_persisted_total",
			"Device log records written to the store.", e.recordsPersisted.Load),
		counter("records_dropped_total",
			"Device log records dropped after the storage retry failed.", e.recordsDropped.Load),
		gauge("pending_requests",
			"Requests currently awaiting a reply.", func() float64 {
				return float64(e.table.pendingCount())
			}),
		gauge("transport_connected",
			"1 when the broker session is up.", func() float64 {
				if e.transport.Connected() {
					return 1
				}
				return 0
			}),
	)

	return registry
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Journeytrack-poller is the always-on telemetry polling service. It
// periodically discovers active journey sessions, requests live
// telemetry from each session's device over MQTT, correlates the
// asynchronous replies back to the originating requests, and persists
// exactly one log record per request: the reply payload, a timeout
// marker, or an error marker.
//
// Data flow:
//
//	scan tick → active session query → dispatcher → device request topic
//	reply topic → correlation table → persister → device_logs
//
// Request/reply correlation:
//   - Each dispatched request carries a fresh 16-character correlation
//     id and registers a deadline in the correlation table.
//   - Device replies arrive on a wildcard subscription; the correlation
//     id rides in the reply topic path.
//   - A claim on the table is first-wins: exactly one of reply,
//     timeout, or error reaches the store per request. Late replies are
//     counted and discarded.
//
// Concurrency is capped by a fixed pool of dispatch slots. The scan
// loop never blocks on a slot and never overlaps cycles; sessions that
// could not be dispatched are simply reconsidered on the next scan.
//
// The poller also serves a read-only status HTTP surface (/, /health,
// /status, /metrics), sweeps expired sessions to the completed state,
// and optionally writes a CBOR heartbeat file for supervisors.
package main

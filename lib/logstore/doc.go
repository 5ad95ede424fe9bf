// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package logstore manages the poller's SQLite storage: journey
// sessions, device bindings, and the device log records produced by
// the polling engine.
//
// One database file holds three tables. journey_sessions and devices
// are the tracked-session inventory: the fleet service owns their
// contents, the poller only reads them (and flips expired sessions to
// completed). device_logs is the poller's output: exactly one immutable
// row per resolved, timed-out, or failed poll request, keyed by the
// request's correlation id so retried writes cannot duplicate a record.
//
// All timestamps are stored as Unix nanoseconds in INTEGER columns and
// exposed as time.Time on the Go types.
package logstore

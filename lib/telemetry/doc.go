// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry defines the wire types of the OBU device protocol:
// the poll request envelope the poller publishes, the reply envelope
// devices publish back, and the correlation ids that tie the two
// together.
//
// The protocol predates this service and has firmware quirks the types
// absorb: the request field carrying the correlation id is called
// sessionId on the wire (it is unrelated to journey sessions), and some
// firmware revisions misspell the reply's timestamp field as timestap.
//
// Replies carry a data member whose shape varies by firmware. The
// poller persists those bytes verbatim; [Data] is only a typed view
// over the one group the poller itself reads (GPS_INFO), with every
// other group preserved as raw passthrough.
package telemetry

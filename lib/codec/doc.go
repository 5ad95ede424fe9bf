// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration.
//
// JourneyTrack uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the device request/reply protocol,
//     the status HTTP endpoints, CLI output, and log export.
//   - CBOR for on-disk state the poller owns, today the heartbeat
//     file consumed by external supervisors.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, so a supervisor
// can compare consecutive heartbeat files byte-wise.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
package codec

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

const (
	// requestVersion is the protocol version expected by current OBU
	// firmware.
	requestVersion = "1.0.0"

	// requestStructs lists the telemetry groups requested on every
	// poll.
	requestStructs = "SYSTEM_INFO,BATTERY_INFO,GPS_INFO"
)

// Request is the poll request envelope published to a device. The
// SessionID field carries the poller's correlation id; the device
// echoes it in its reply topic.
type Request struct {
	SessionID string      `json:"sessionId"`
	TypeCode  string      `json:"typeCode"`
	TypeNo    string      `json:"typeNo"`
	Version   string      `json:"version"`
	Timestamp int64       `json:"timestamp"`
	Data      RequestData `json:"data"`
}

// RequestData selects which telemetry groups the device should report.
type RequestData struct {
	Structs string `json:"structs"`
}

// NewRequest builds the standard poll request: identity from the
// broker account's user number, timestamp in Unix seconds, and the
// fixed set of telemetry groups.
func NewRequest(correlationID, userNo string, issuedAt time.Time) Request {
	return Request{
		SessionID: correlationID,
		TypeCode:  "user",
		TypeNo:    userNo,
		Version:   requestVersion,
		Timestamp: issuedAt.Unix(),
		Data:      RequestData{Structs: requestStructs},
	}
}

// NewCorrelationID returns a fresh correlation id: 16 lowercase hex
// characters, the format device firmware echoes back in reply topics.
func NewCorrelationID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}

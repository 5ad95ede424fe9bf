// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/json"
	"fmt"
)

// Reply is the envelope a device publishes in answer to a poll
// request. SessionID echoes the request's correlation id.
type Reply struct {
	SessionID string `json:"sessionId,omitempty"`
	TypeCode  string `json:"typeCode,omitempty"`
	TypeNo    string `json:"typeNo,omitempty"`
	Version   string `json:"version,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Data      Data   `json:"data"`
}

// Data is the typed view over a reply's telemetry body. GPS_INFO is
// the only group the poller reads; every other group rides along
// untouched in Extra. The view is lossy on purpose: the persisted
// payload is the verbatim body bytes, never a re-marshal of this type.
type Data struct {
	GPS   *GPSInfo
	Extra map[string]json.RawMessage
}

// GPSInfo is the position fix group of a device reply. Only the
// fields the poller logs are typed.
type GPSInfo struct {
	LatitudeStr  string  `json:"latitude_str,omitempty"`
	LongitudeStr string  `json:"longitude_str,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
}

// UnmarshalJSON splits the body into the typed GPS view and raw
// passthrough members. A GPS_INFO group that does not match the typed
// shape is kept in Extra instead of failing the whole body. A body
// that is not a JSON object is an error.
func (d *Data) UnmarshalJSON(raw []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return fmt.Errorf("telemetry body is not an object: %w", err)
	}

	d.GPS = nil
	d.Extra = nil

	for name, value := range members {
		if name == "GPS_INFO" {
			gps := &GPSInfo{}
			if err := json.Unmarshal(value, gps); err == nil {
				d.GPS = gps
				continue
			}
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage, len(members))
		}
		d.Extra[name] = value
	}
	return nil
}

// MarshalJSON reassembles the body from the typed view and the
// passthrough members. Used when constructing replies (tests, fakes);
// production persistence uses the verbatim bytes from ParseReply.
func (d Data) MarshalJSON() ([]byte, error) {
	members := make(map[string]json.RawMessage, len(d.Extra)+1)
	for name, value := range d.Extra {
		members[name] = value
	}
	if d.GPS != nil {
		gps, err := json.Marshal(d.GPS)
		if err != nil {
			return nil, err
		}
		members["GPS_INFO"] = gps
	}
	return json.Marshal(members)
}

// wireReply mirrors the reply JSON closely enough to capture the
// firmware timestamp misspelling and the raw data member.
type wireReply struct {
	SessionID string          `json:"sessionId"`
	TypeCode  string          `json:"typeCode"`
	TypeNo    string          `json:"typeNo"`
	Version   string          `json:"version"`
	Timestamp int64           `json:"timestamp"`
	Timestap  int64           `json:"timestap"`
	Data      json.RawMessage `json:"data"`
}

// ParseReply decodes a reply envelope. It returns the typed envelope
// and the verbatim bytes of the data member, which is what the
// persister stores.
//
// Firmware tolerance, matching observed device behavior:
//   - a timestap field substitutes for timestamp when timestamp is
//     absent;
//   - a missing data member yields body bytes "{}";
//   - a data member that is not a JSON object is still returned
//     verbatim, with an empty typed view.
//
// The only error is an envelope that is not valid JSON.
func ParseReply(payload []byte) (Reply, []byte, error) {
	var wire wireReply
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Reply{}, nil, fmt.Errorf("telemetry: parsing reply envelope: %w", err)
	}

	reply := Reply{
		SessionID: wire.SessionID,
		TypeCode:  wire.TypeCode,
		TypeNo:    wire.TypeNo,
		Version:   wire.Version,
		Timestamp: wire.Timestamp,
	}
	if reply.Timestamp == 0 {
		reply.Timestamp = wire.Timestap
	}

	body := []byte(wire.Data)
	if len(body) == 0 || string(body) == "null" {
		body = []byte("{}")
	}

	// Non-object bodies leave the typed view empty; the verbatim
	// bytes still reach storage.
	_ = reply.Data.UnmarshalJSON(body)

	return reply, body, nil
}

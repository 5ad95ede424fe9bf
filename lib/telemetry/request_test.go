// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewRequestWireShape(t *testing.T) {
	issuedAt := time.Date(2026, 1, 9, 10, 45, 0, 0, time.UTC)
	request := NewRequest("a3f1c2d4e5b60718", "kh4423", issuedAt)

	encoded, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(encoded, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	checks := map[string]any{
		"sessionId": "a3f1c2d4e5b60718",
		"typeCode":  "user",
		"typeNo":    "kh4423",
		"version":   "1.0.0",
		"timestamp": float64(issuedAt.Unix()),
	}
	for field, want := range checks {
		if wire[field] != want {
			t.Errorf("%s = %v, want %v", field, wire[field], want)
		}
	}

	data, ok := wire["data"].(map[string]any)
	if !ok {
		t.Fatalf("data member = %v, want object", wire["data"])
	}
	if data["structs"] != "SYSTEM_INFO,BATTERY_INFO,GPS_INFO" {
		t.Errorf("structs = %v, want the fixed group list", data["structs"])
	}
}

func TestNewCorrelationIDFormat(t *testing.T) {
	id := NewCorrelationID()
	if len(id) != 16 {
		t.Fatalf("length = %d, want 16", len(id))
	}
	for _, r := range id {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			t.Fatalf("id %q contains non-hex character %q", id, r)
		}
	}
}

func TestNewCorrelationIDUniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for range 1000 {
		id := NewCorrelationID()
		if seen[id] {
			t.Fatalf("duplicate correlation id %q", id)
		}
		seen[id] = true
	}
}

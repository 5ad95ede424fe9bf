// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newStatusTestServer runs the status surface for an engine that has
// completed one scan cycle with one dispatched request.
func newStatusTestServer(t *testing.T) (*testEngine, *httptest.Server) {
	t.Helper()
	e := newTestEngine(t, 5)
	e.seedActiveSession(t, 101, "veh-1", "860000000000001")
	if err := e.engine.runCycle(t.Context()); err != nil {
		t.Fatalf("runCycle: %v", err)
	}

	server := httptest.NewServer(newHTTPHandler(e.engine, newMetricsRegistry(e.engine)))
	t.Cleanup(server.Close)
	return e, server
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	response, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return response, body
}

func TestBannerEndpoint(t *testing.T) {
	_, server := newStatusTestServer(t)

	response, body := get(t, server.URL+"/")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.StatusCode)
	}
	var banner bannerResponse
	if err := json.Unmarshal(body, &banner); err != nil {
		t.Fatalf("decoding banner: %v", err)
	}
	if banner.Service != "journeytrack-poller" {
		t.Fatalf("service = %q, want journeytrack-poller", banner.Service)
	}
	if banner.Status != "running" {
		t.Fatalf("status = %q, want running", banner.Status)
	}
	if banner.Version == "" {
		t.Fatal("banner version is empty")
	}
}

func TestBannerUnknownPathIsNotFound(t *testing.T) {
	_, server := newStatusTestServer(t)
	response, _ := get(t, server.URL+"/nope")
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", response.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, server := newStatusTestServer(t)

	response, body := get(t, server.URL+"/health")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.StatusCode)
	}
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	// The engine loop is not running in this test, and the health
	// surface must say so.
	if health.ProcessorRunning {
		t.Fatal("processor_running = true, want false (Run not started)")
	}
	if health.Status != "stopped" {
		t.Fatalf("status = %q, want stopped", health.Status)
	}
	if !health.TransportConnected {
		t.Fatal("transport_connected = false, want true")
	}
	if health.ScanIntervalSeconds != 5 {
		t.Fatalf("scan_interval_seconds = %v, want 5", health.ScanIntervalSeconds)
	}
	if !health.Timestamp.Equal(engineBase) {
		t.Fatalf("timestamp = %v, want %v", health.Timestamp, engineBase)
	}
}

func TestStatusEndpoint(t *testing.T) {
	e, server := newStatusTestServer(t)

	// Resolve the in-flight request so the counters show a full
	// request lifecycle.
	e.clk.Advance(2 * time.Second)
	e.engine.HandleReply("0000000000000001", replyEnvelope("0000000000000001", `{}`))

	response, body := get(t, server.URL+"/status")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.StatusCode)
	}
	if got := response.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q, want application/json", got)
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.CyclesRun != 1 || status.RequestsSent != 1 || status.RepliesResolved != 1 {
		t.Fatalf("cycles/sent/resolved = %d/%d/%d, want 1/1/1",
			status.CyclesRun, status.RequestsSent, status.RepliesResolved)
	}
	if status.PendingRequests != 0 {
		t.Fatalf("pending_requests = %d, want 0", status.PendingRequests)
	}
	if status.RecordsPersisted != 1 {
		t.Fatalf("records_persisted = %d, want 1", status.RecordsPersisted)
	}
	if status.LastCycle == nil {
		t.Fatal("last_cycle missing")
	}
	if status.LastCycle.SessionsFound != 1 || status.LastCycle.Dispatched != 1 {
		t.Fatalf("last cycle found/dispatched = %d/%d, want 1/1",
			status.LastCycle.SessionsFound, status.LastCycle.Dispatched)
	}
	if status.MaxConcurrentDevices != 5 {
		t.Fatalf("max_concurrent_devices = %d, want 5", status.MaxConcurrentDevices)
	}
	if status.ReplyTimeoutSeconds != 10 {
		t.Fatalf("reply_timeout_seconds = %v, want 10", status.ReplyTimeoutSeconds)
	}
	if status.UptimeSeconds != 2 {
		t.Fatalf("uptime_seconds = %v, want 2", status.UptimeSeconds)
	}
}

func TestStatusRejectsWrites(t *testing.T) {
	_, server := newStatusTestServer(t)
	response, err := http.Post(server.URL+"/status", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST /status: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", response.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, server := newStatusTestServer(t)

	response, body := get(t, server.URL+"/metrics")
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.StatusCode)
	}
	text := string(body)
	for _, want := range []string{
		"journeytrack_poller_requests_sent_total 1",
		"journeytrack_poller_pending_requests 1",
		"journeytrack_poller_cycles_run_total 1",
		"journeytrack_poller_transport_connected 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

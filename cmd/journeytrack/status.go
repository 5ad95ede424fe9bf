// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/journeytrack/journeytrack/cmd/journeytrack/cli"
)

// pollerStatus mirrors the poller's GET /status payload.
type pollerStatus struct {
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
	LastCycle            *pollerCycle `json:"last_cycle,omitempty"`
	ScanIntervalSeconds  float64      `json:"scan_interval_seconds"`
	MaxConcurrentDevices int          `json:"max_concurrent_devices"`
	ReplyTimeoutSeconds  float64      `json:"reply_timeout_seconds"`
}

// pollerCycle mirrors the last_cycle member of the status payload.
type pollerCycle struct {
	StartedAt       time.Time `json:"started_at"`
	SessionsFound   int       `json:"sessions_found"`
	Dispatched      int       `json:"dispatched"`
	SkippedPending  int       `json:"skipped_pending"`
	SkippedNoSlot   int       `json:"skipped_no_slot"`
	SkippedNoDevice int       `json:"skipped_no_device"`
	DurationSeconds float64   `json:"duration_seconds"`
}

type statusParams struct {
	cli.JSONOutput
	URL     string        `flag:"url" desc:"base URL of the poller's status server" default:"http://127.0.0.1:8600"`
	Timeout time.Duration `flag:"timeout" desc:"request timeout" default:"5s"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show poller health and polling statistics",
		Description: `Display operational state of a running poller: uptime, transport
connectivity, in-flight request count, lifetime counters, and the
outcome of the most recent scan cycle.

This queries the poller's read-only status endpoint. Use --url when
the poller listens somewhere other than the default address.`,
		Usage: "journeytrack status [flags]",
		Examples: []cli.Example{
			{
				Description: "Status of the local poller",
				Command:     "journeytrack status",
			},
			{
				Description: "JSON output for scripting",
				Command:     "journeytrack status --url http://poller.internal:8600 --json",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			ctx, cancel := context.WithTimeout(ctx, params.Timeout)
			defer cancel()

			status, err := fetchStatus(ctx, params.URL)
			if err != nil {
				return err
			}

			if done, err := params.EmitJSON(status); done {
				return err
			}

			renderStatus(os.Stdout, status)
			return nil
		},
	}
}

// fetchStatus retrieves and decodes the /status snapshot from the
// poller at baseURL.
func fetchStatus(ctx context.Context, baseURL string) (pollerStatus, error) {
	var status pollerStatus

	url := strings.TrimRight(baseURL, "/") + "/status"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return status, fmt.Errorf("building status request: %w", err)
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return status, fmt.Errorf("querying %s: %w", url, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return status, fmt.Errorf("%s returned %s", url, response.Status)
	}
	if err := json.NewDecoder(response.Body).Decode(&status); err != nil {
		return status, fmt.Errorf("decoding status response: %w", err)
	}
	return status, nil
}

// renderStatus writes the human-readable status summary.
func renderStatus(w io.Writer, status pollerStatus) {
	transport := "disconnected"
	if status.TransportConnected {
		transport = "connected"
	}

	fmt.Fprintf(w, "Status:     %s\n", status.Status)
	fmt.Fprintf(w, "Uptime:     %s\n", formatUptime(status.UptimeSeconds))
	fmt.Fprintf(w, "Transport:  %s\n", transport)
	fmt.Fprintf(w, "Pending:    %d of %d slots in flight\n",
		status.PendingRequests, status.MaxConcurrentDevices)

	fmt.Fprintf(w, "\nCounters\n")
	fmt.Fprintf(w, "  Cycles:    %d run, %d ticks skipped\n", status.CyclesRun, status.TicksSkipped)
	fmt.Fprintf(w, "  Requests:  %d sent\n", status.RequestsSent)
	fmt.Fprintf(w, "  Replies:   %d resolved, %d timed out, %d failed\n",
		status.RepliesResolved, status.RequestsTimedOut, status.RequestsFailed)
	fmt.Fprintf(w, "  Late:      %d late replies discarded\n", status.LateReplies)
	fmt.Fprintf(w, "  Records:   %d persisted, %d dropped\n",
		status.RecordsPersisted, status.RecordsDropped)

	if cycle := status.LastCycle; cycle != nil {
		state := "idle"
		if status.CycleRunning {
			state = "cycle in progress"
		}
		fmt.Fprintf(w, "\nLast cycle (%s)\n", state)
		fmt.Fprintf(w, "  Started:   %s\n", formatTime(cycle.StartedAt))
		fmt.Fprintf(w, "  Sessions:  %d found, %d dispatched\n", cycle.SessionsFound, cycle.Dispatched)
		fmt.Fprintf(w, "  Skipped:   %d pending, %d no slot, %d no device\n",
			cycle.SkippedPending, cycle.SkippedNoSlot, cycle.SkippedNoDevice)
		fmt.Fprintf(w, "  Duration:  %s\n", formatSeconds(cycle.DurationSeconds))
	}

	fmt.Fprintf(w, "\nConfig\n")
	fmt.Fprintf(w, "  Scan interval:  %s\n", formatSeconds(status.ScanIntervalSeconds))
	fmt.Fprintf(w, "  Reply timeout:  %s\n", formatSeconds(status.ReplyTimeoutSeconds))
}

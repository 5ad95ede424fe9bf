// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/journeytrack/journeytrack/lib/logstore"
)

// formatUptime formats seconds as a human-readable uptime string.
func formatUptime(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	hours := int(duration / time.Hour)
	minutes := int((duration % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, int((duration%time.Minute)/time.Second))
	}
	return fmt.Sprintf("%ds", int(duration/time.Second))
}

// formatSeconds formats a duration given in seconds using the largest
// appropriate unit: ms, s, or compound minutes+seconds.
func formatSeconds(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	switch {
	case duration < time.Second:
		return fmt.Sprintf("%.1fms", float64(duration)/float64(time.Millisecond))
	case duration < time.Minute:
		return fmt.Sprintf("%.2fs", float64(duration)/float64(time.Second))
	default:
		minutes := int(duration / time.Minute)
		remainder := int((duration % time.Minute) / time.Second)
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, remainder)
	}
}

// formatTime formats a timestamp as a local-time string with second
// precision. Zero times render as "-".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02T15:04:05")
}

// truncate shortens a string to maxLength, appending "..." if truncated.
func truncate(value string, maxLength int) string {
	if len(value) <= maxLength {
		return value
	}
	if maxLength <= 3 {
		return value[:maxLength]
	}
	return value[:maxLength-3] + "..."
}

// parseOutcomeFlag parses an outcome flag value. Accepts: reply,
// timeout, error. An empty value means no filter.
func parseOutcomeFlag(name string) (logstore.Outcome, error) {
	switch strings.ToLower(name) {
	case "":
		return "", nil
	case "reply":
		return logstore.OutcomeReply, nil
	case "timeout":
		return logstore.OutcomeTimeout, nil
	case "error":
		return logstore.OutcomeError, nil
	default:
		return "", fmt.Errorf("invalid outcome %q: expected reply, timeout, or error", name)
	}
}

// parseSinceFlag parses a time specification from a CLI flag value.
// Accepts three formats:
//   - Go duration strings ("1h", "30m", "2h30m"), resolved relative to now
//   - day suffixes ("7d", "30d"), shorthand for multiples of 24h
//   - timestamps, RFC3339 ("2026-03-01T12:00:00Z") or date-only ("2026-03-01")
//
// Duration-based values are subtracted from now (i.e., "1h" means "1
// hour ago"). An empty value returns the zero time, meaning no filter.
func parseSinceFlag(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	// Try day suffix first (not handled by time.ParseDuration).
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err == nil && days > 0 {
			return now.Add(-time.Duration(days) * 24 * time.Hour), nil
		}
	}

	// Try Go duration.
	duration, err := time.ParseDuration(value)
	if err == nil {
		return now.Add(-duration), nil
	}

	// Try RFC3339 timestamp.
	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	// Try date-only (YYYY-MM-DD), interpreted as midnight UTC.
	timestamp, err = time.Parse("2006-01-02", value)
	if err == nil {
		return timestamp, nil
	}

	return time.Time{}, fmt.Errorf("invalid time %q: expected duration (1h, 7d), RFC3339 timestamp, or date (2006-01-02)", value)
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/journeytrack/journeytrack/lib/clock"
	"github.com/journeytrack/journeytrack/lib/logstore"
)

// logsBase is the collection instant of the oldest seeded record.
var logsBase = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *logstore.Store {
	t.Helper()
	store, err := logstore.Open(logstore.Config{
		Path:   filepath.Join(t.TempDir(), "journeytrack.db"),
		Clock:  clock.Fake(logsBase),
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return store
}

// seedDeviceLogs inserts one reply, one timeout, and one error row,
// collected 5 seconds apart starting at logsBase.
func seedDeviceLogs(t *testing.T, store *logstore.Store) {
	t.Helper()
	ctx := context.Background()
	rows := []logstore.DeviceLog{
		{
			CorrelationID: "00000000000000a1",
			SessionID:     41,
			DeviceIMEI:    "860000000000001",
			Outcome:       logstore.OutcomeReply,
			Payload:       []byte(`{"GPS_INFO":{"latitude":52.1,"longitude":21.0}}`),
			CollectedAt:   logsBase,
		},
		{
			CorrelationID: "00000000000000a2",
			SessionID:     42,
			DeviceIMEI:    "860000000000002",
			Outcome:       logstore.OutcomeTimeout,
			Detail:        "no reply within 10s",
			CollectedAt:   logsBase.Add(5 * time.Second),
		},
		{
			CorrelationID: "00000000000000a3",
			SessionID:     42,
			DeviceIMEI:    "860000000000002",
			Outcome:       logstore.OutcomeError,
			Detail:        "sending request: broker unavailable",
			CollectedAt:   logsBase.Add(10 * time.Second),
		},
	}
	for _, row := range rows {
		inserted, err := store.InsertDeviceLog(ctx, row)
		if err != nil {
			t.Fatalf("seeding %s: %v", row.CorrelationID, err)
		}
		if !inserted {
			t.Fatalf("seeding %s: not inserted", row.CorrelationID)
		}
	}
}

func TestLogEntryFromRecord(t *testing.T) {
	record := logstore.DeviceLog{
		ID:            7,
		CorrelationID: "00000000000000a1",
		SessionID:     41,
		DeviceIMEI:    "860000000000001",
		Outcome:       logstore.OutcomeReply,
		Payload:       []byte(`{"BATTERY_INFO":{"level":87}}`),
		CollectedAt:   logsBase,
	}

	entry := logEntryFromRecord(record)
	if entry.ID != 7 || entry.SessionID != 41 {
		t.Errorf("entry ids = (%d, %d), want (7, 41)", entry.ID, entry.SessionID)
	}
	if entry.Outcome != "reply" {
		t.Errorf("Outcome = %q, want reply", entry.Outcome)
	}
	if string(entry.Payload) != `{"BATTERY_INFO":{"level":87}}` {
		t.Errorf("Payload = %s, want verbatim body", entry.Payload)
	}
	if !entry.CollectedAt.Equal(logsBase) {
		t.Errorf("CollectedAt = %v, want %v", entry.CollectedAt, logsBase)
	}

	// Timeout rows have no payload; the JSON field must vanish, not
	// render as null.
	timeoutEntry := logEntryFromRecord(logstore.DeviceLog{
		CorrelationID: "00000000000000a2",
		Outcome:       logstore.OutcomeTimeout,
		Detail:        "no reply within 10s",
	})
	if timeoutEntry.Payload != nil {
		t.Errorf("timeout Payload = %v, want nil", timeoutEntry.Payload)
	}
}

func TestLogQueryParamsFilter(t *testing.T) {
	params := logQueryParams{
		Session: 42,
		IMEI:    "860000000000002",
		Outcome: "timeout",
		Since:   "1h",
	}
	now := logsBase.Add(2 * time.Hour)

	filter, err := params.filter(25, now)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if filter.SessionID != 42 {
		t.Errorf("SessionID = %d, want 42", filter.SessionID)
	}
	if filter.DeviceIMEI != "860000000000002" {
		t.Errorf("DeviceIMEI = %q", filter.DeviceIMEI)
	}
	if filter.Outcome != logstore.OutcomeTimeout {
		t.Errorf("Outcome = %q, want timeout", filter.Outcome)
	}
	if !filter.Since.Equal(now.Add(-time.Hour)) {
		t.Errorf("Since = %v, want %v", filter.Since, now.Add(-time.Hour))
	}
	if filter.Limit != 25 {
		t.Errorf("Limit = %d, want 25", filter.Limit)
	}

	if _, err := (&logQueryParams{Outcome: "bogus"}).filter(10, now); err == nil {
		t.Error("filter with bad outcome = nil error, want error")
	}
	if _, err := (&logQueryParams{Since: "bogus"}).filter(10, now); err == nil {
		t.Error("filter with bad since = nil error, want error")
	}
}

func TestLogQueryParamsUnfiltered(t *testing.T) {
	if !(&logQueryParams{}).unfiltered() {
		t.Error("empty params reported as filtered")
	}
	if (&logQueryParams{Session: 42}).unfiltered() {
		t.Error("session filter not detected")
	}
	if (&logQueryParams{Since: "1h"}).unfiltered() {
		t.Error("since filter not detected")
	}
}

func TestQueryWithCLIFilter(t *testing.T) {
	store := newTestStore(t)
	seedDeviceLogs(t, store)
	ctx := t.Context()

	params := logQueryParams{Session: 42}
	filter, err := params.filter(100, logsBase.Add(time.Minute))
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	records, err := store.QueryDeviceLogs(ctx, filter)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest first.
	if records[0].CorrelationID != "00000000000000a3" {
		t.Errorf("first record = %s, want 00000000000000a3", records[0].CorrelationID)
	}
	if records[1].CorrelationID != "00000000000000a2" {
		t.Errorf("second record = %s, want 00000000000000a2", records[1].CorrelationID)
	}
}

func TestWriteLogTable(t *testing.T) {
	entries := []logEntry{
		logEntryFromRecord(logstore.DeviceLog{
			CorrelationID: "00000000000000a1",
			SessionID:     41,
			DeviceIMEI:    "860000000000001",
			Outcome:       logstore.OutcomeReply,
			Payload:       []byte(`{"GPS_INFO":{"latitude":52.1}}`),
			CollectedAt:   logsBase,
		}),
		logEntryFromRecord(logstore.DeviceLog{
			CorrelationID: "00000000000000a2",
			SessionID:     42,
			DeviceIMEI:    "860000000000002",
			Outcome:       logstore.OutcomeTimeout,
			Detail:        "no reply within 10s",
			CollectedAt:   logsBase.Add(5 * time.Second),
		}),
	}

	var buffer bytes.Buffer
	if err := writeLogTable(&buffer, entries); err != nil {
		t.Fatalf("writeLogTable: %v", err)
	}
	output := buffer.String()

	for _, want := range []string{
		"COLLECTED", "SESSION", "DEVICE", "OUTCOME", "DETAIL",
		"41", "860000000000001", "reply", `{"GPS_INFO":{"latitude":52.1}}`,
		"42", "860000000000002", "timeout", "no reply within 10s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("table missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestEntryDetailPrefersDetail(t *testing.T) {
	entry := logEntry{
		Detail:  "sending request: broker unavailable",
		Payload: []byte(`{"ignored":true}`),
	}
	if got := entryDetail(entry); got != "sending request: broker unavailable" {
		t.Errorf("entryDetail = %q, want the stored detail", got)
	}

	long := logEntry{Payload: []byte(`{"data":"` + strings.Repeat("x", 100) + `"}`)}
	if got := entryDetail(long); len(got) > 60 {
		t.Errorf("entryDetail length = %d, want <= 60", len(got))
	}
}

func TestOpenLogStoreMissingFile(t *testing.T) {
	_, err := openLogStore(filepath.Join(t.TempDir(), "missing.db"), slog.New(slog.DiscardHandler))
	if err == nil {
		t.Fatal("openLogStore = nil error for a missing database")
	}
	if !strings.Contains(err.Error(), "opening database") {
		t.Errorf("error = %q, want opening database context", err.Error())
	}
}

func TestOpenLogStoreExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journeytrack.db")
	seed, err := logstore.Open(logstore.Config{
		Path:   path,
		Clock:  clock.Fake(logsBase),
		Logger: slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	// Pool connections open lazily, so write a row to force the
	// database file into existence before the reopen.
	seedDeviceLogs(t, seed)
	if err := seed.Close(); err != nil {
		t.Fatalf("closing seed store: %v", err)
	}

	store, err := openLogStore(path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("openLogStore: %v", err)
	}
	defer store.Close()

	records, err := store.QueryDeviceLogs(t.Context(), logstore.LogFilter{})
	if err != nil {
		t.Fatalf("querying reopened database: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records after reopen, want 3", len(records))
	}
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Outcome classifies how a poll request ended.
type Outcome string

const (
	// OutcomeReply means the device answered within the deadline; the
	// row's payload holds the reply's data body.
	OutcomeReply Outcome = "reply"

	// OutcomeTimeout means no reply arrived before the deadline.
	OutcomeTimeout Outcome = "timeout"

	// OutcomeError means the request failed terminally before or
	// instead of a reply (send failure, malformed reply). The row's
	// detail column describes the failure.
	OutcomeError Outcome = "error"
)

// DeviceLog is one immutable poll result row.
type DeviceLog struct {
	ID            int64
	CorrelationID string
	SessionID     int64
	DeviceIMEI    string
	Outcome       Outcome

	// Payload is the raw telemetry body from the device reply. Nil
	// for timeout and error rows.
	Payload []byte

	// Detail is a short human-readable note for timeout and error
	// rows. Empty for reply rows.
	Detail string

	CollectedAt time.Time
}

// InsertDeviceLog writes one poll result row. Idempotent on the
// correlation id: if a row with the same correlation id already
// exists, nothing is written and inserted is false. The caller treats
// a false return as success (the record is durably stored either way).
func (s *Store) InsertDeviceLog(ctx context.Context, record DeviceLog) (inserted bool, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("logstore: insert device log: %w", err)
	}
	defer s.pool.Put(conn)

	var detail any
	if record.Detail != "" {
		detail = record.Detail
	}
	var payload any
	if record.Payload != nil {
		payload = record.Payload
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO device_logs
			(correlation_id, journey_session_id, device_imei, outcome, payload, detail, collected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(correlation_id) DO NOTHING`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.CorrelationID,
				record.SessionID,
				record.DeviceIMEI,
				string(record.Outcome),
				payload,
				detail,
				record.CollectedAt.UnixNano(),
			},
		})
	if err != nil {
		return false, fmt.Errorf("logstore: insert device log %s: %w", record.CorrelationID, err)
	}
	return conn.Changes() > 0, nil
}

// LogFilter specifies the criteria for querying device logs. Zero
// values are not applied as filters.
type LogFilter struct {
	SessionID  int64     // Exact match on journey session id.
	DeviceIMEI string    // Exact match on device IMEI.
	Outcome    Outcome   // Exact match on outcome.
	Since      time.Time // Earliest collected_at.
	Limit      int       // Maximum rows to return (default 100).
}

// QueryDeviceLogs returns device log rows matching the filter, newest
// first.
func (s *Store) QueryDeviceLogs(ctx context.Context, filter LogFilter) ([]DeviceLog, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("logstore: query device logs: %w", err)
	}
	defer s.pool.Put(conn)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var conditions []string
	var args []any

	if filter.SessionID != 0 {
		conditions = append(conditions, "journey_session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.DeviceIMEI != "" {
		conditions = append(conditions, "device_imei = ?")
		args = append(args, filter.DeviceIMEI)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "collected_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := "SELECT id, correlation_id, journey_session_id, device_imei, outcome, payload, detail, collected_at FROM device_logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY collected_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var records []DeviceLog
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			record := DeviceLog{
				ID:            stmt.ColumnInt64(0),
				CorrelationID: stmt.ColumnText(1),
				SessionID:     stmt.ColumnInt64(2),
				DeviceIMEI:    stmt.ColumnText(3),
				Outcome:       Outcome(stmt.ColumnText(4)),
				Detail:        stmt.ColumnText(6),
				CollectedAt:   time.Unix(0, stmt.ColumnInt64(7)),
			}
			if !stmt.ColumnIsNull(5) {
				payload := make([]byte, stmt.ColumnLen(5))
				stmt.ColumnBytes(5, payload)
				record.Payload = payload
			}
			records = append(records, record)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("logstore: query device logs: %w", err)
	}
	return records, nil
}

// CountDeviceLogs returns the number of stored device log rows,
// optionally restricted to one outcome. Used by the operator CLI.
func (s *Store) CountDeviceLogs(ctx context.Context, outcome Outcome) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("logstore: count device logs: %w", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT COUNT(*) FROM device_logs"
	var args []any
	if outcome != "" {
		query += " WHERE outcome = ?"
		args = append(args, string(outcome))
	}

	var count int64
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("logstore: count device logs: %w", err)
	}
	return count, nil
}

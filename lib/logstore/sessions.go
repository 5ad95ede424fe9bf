// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Session status values. The fleet service creates sessions as pending
// and activates them; the poller only ever moves active sessions to
// completed when their window has elapsed.
const (
	SessionPending   = "pending"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Session is a journey session row as written by the fleet service.
type Session struct {
	ID        int64
	VehicleID string
	Status    string
	StartTime time.Time
	EndTime   time.Time
}

// ActiveSession is the per-cycle snapshot the polling engine works
// from: an active session joined with its device binding.
type ActiveSession struct {
	ID        int64
	VehicleID string

	// DeviceIMEI is empty when the session's vehicle has no bound
	// device. The dispatcher skips such sessions.
	DeviceIMEI string

	StartTime time.Time
	EndTime   time.Time
}

// ActiveSessions returns the sessions that should be polled right now:
// status active and start_time <= now <= end_time, joined with the
// device bound to each session's vehicle. Sessions whose vehicle has
// no device are included with an empty IMEI so the caller can count
// and log the skip. Ordered by session id ascending for deterministic
// dispatch.
func (s *Store) ActiveSessions(ctx context.Context, now time.Time) ([]ActiveSession, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("logstore: active sessions: %w", err)
	}
	defer s.pool.Put(conn)

	const query = `
		SELECT js.id, js.vehicle_id, COALESCE(d.imei, ''), js.start_time, js.end_time
		FROM journey_sessions js
		LEFT JOIN devices d ON d.vehicle_id = js.vehicle_id
		WHERE js.status = ? AND js.start_time <= ? AND js.end_time >= ?
		ORDER BY js.id ASC`

	nowNanos := now.UnixNano()
	var sessions []ActiveSession
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{SessionActive, nowNanos, nowNanos},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			sessions = append(sessions, ActiveSession{
				ID:         stmt.ColumnInt64(0),
				VehicleID:  stmt.ColumnText(1),
				DeviceIMEI: stmt.ColumnText(2),
				StartTime:  time.Unix(0, stmt.ColumnInt64(3)),
				EndTime:    time.Unix(0, stmt.ColumnInt64(4)),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("logstore: active sessions: %w", err)
	}
	return sessions, nil
}

// EndExpiredSessions marks active sessions whose window has fully
// elapsed (end_time < now) as completed. Returns the number of
// sessions transitioned. Called by the session sweeper on its own
// interval, independent of the scan loop.
func (s *Store) EndExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("logstore: end expired sessions: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"UPDATE journey_sessions SET status = ? WHERE status = ? AND end_time < ?",
		&sqlitex.ExecOptions{
			Args: []any{SessionCompleted, SessionActive, now.UnixNano()},
		})
	if err != nil {
		return 0, fmt.Errorf("logstore: end expired sessions: %w", err)
	}
	return conn.Changes(), nil
}

// InsertSession writes a journey session row. Used by tests and by the
// seed tooling; in production the fleet service owns this table.
func (s *Store) InsertSession(ctx context.Context, session Session) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("logstore: insert session: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO journey_sessions (id, vehicle_id, status, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				session.ID,
				session.VehicleID,
				session.Status,
				session.StartTime.UnixNano(),
				session.EndTime.UnixNano(),
				s.clock.Now().UnixNano(),
			},
		})
	if err != nil {
		return fmt.Errorf("logstore: insert session %d: %w", session.ID, err)
	}
	return nil
}

// BindDevice records that the device with the given IMEI is installed
// in the given vehicle, replacing any previous binding for that IMEI.
func (s *Store) BindDevice(ctx context.Context, imei, vehicleID string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("logstore: bind device: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO devices (imei, vehicle_id) VALUES (?, ?)
		 ON CONFLICT(imei) DO UPDATE SET vehicle_id = excluded.vehicle_id`,
		&sqlitex.ExecOptions{
			Args: []any{imei, vehicleID},
		})
	if err != nil {
		return fmt.Errorf("logstore: bind device %s: %w", imei, err)
	}
	return nil
}

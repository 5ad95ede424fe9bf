// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/journeytrack/journeytrack/lib/clock"
	"github.com/journeytrack/journeytrack/lib/sqlitepool"
)

// schema is applied to every pool connection. CREATE IF NOT EXISTS
// keeps it idempotent across connections and restarts.
const schema = `
	CREATE TABLE IF NOT EXISTS journey_sessions (
		id         INTEGER PRIMARY KEY,
		vehicle_id TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending',
		start_time INTEGER NOT NULL,
		end_time   INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON journey_sessions(status, start_time, end_time);

	CREATE TABLE IF NOT EXISTS devices (
		imei       TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_devices_vehicle ON devices(vehicle_id);

	CREATE TABLE IF NOT EXISTS device_logs (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		correlation_id     TEXT NOT NULL UNIQUE,
		journey_session_id INTEGER NOT NULL,
		device_imei        TEXT NOT NULL,
		outcome            TEXT NOT NULL,
		payload            BLOB,
		detail             TEXT,
		collected_at       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_device_logs_session ON device_logs(journey_session_id, collected_at DESC);
	CREATE INDEX IF NOT EXISTS idx_device_logs_imei ON device_logs(device_imei, collected_at DESC);
	CREATE INDEX IF NOT EXISTS idx_device_logs_collected ON device_logs(collected_at DESC);
`

// Store provides typed access to the poller database. Safe for
// concurrent use; every method borrows a pool connection for the
// duration of the call.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Config holds the parameters for opening the store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. Required.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 4 if zero or negative.
	PoolSize int

	// Clock stamps created_at on inserted sessions.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// Open opens (creating if necessary) the poller database and applies
// the schema. The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("logstore: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logstore: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("logstore: %w", err)
	}

	return &Store{
		pool:   pool,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

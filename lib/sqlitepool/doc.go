// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the SQLite connection pool used by
// JourneyTrack services.
//
// The poller stores journey sessions, device registrations, and device
// log records in a single local SQLite file. This package wraps
// zombiezen.com/go/sqlite with the pragmas that workload needs: WAL
// journal mode so the status endpoints can read while the persister
// writes, NORMAL synchronous for process-crash durability without
// fsync-per-commit overhead, and a busy timeout so a slow checkpoint
// does not surface as SQLITE_BUSY to callers.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are NOT safe for
// concurrent use. Each goroutine must hold its own connection for the
// duration of its work.
//
// # Pragmas
//
// Every connection in the pool is initialized with these pragmas:
//
//   - journal_mode=WAL: reads never block the single writer and the
//     writer never blocks reads. The persister appends device log rows
//     while the HTTP status surface and the operator CLI query.
//   - synchronous=NORMAL: committed transactions survive process
//     crashes. Not durable across power failure, which is acceptable
//     for polled telemetry: the device re-reports on the next cycle.
//   - busy_timeout=5000: wait up to 5 seconds for a write lock instead
//     of returning SQLITE_BUSY immediately.
//   - foreign_keys=OFF: device log rows carry session and device
//     identifiers as plain columns. Nothing cascades; rows outlive the
//     sessions they reference so history stays queryable.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - mmap_size=268435456: 256 MB memory-mapped I/O so range scans
//     over device_logs are served from the OS page cache.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:     "/var/journeytrack/journeytrack.db",
//	    PoolSize: 4,
//	    Logger:   logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// This package is intentionally thin: it applies the standard pragmas
// and exposes the underlying zombiezen types directly. Services write
// SQL, use sqlitex.Execute for cached statements, and manage
// transactions with sqlitex.ImmediateTransaction. There is no query
// builder and no attempt to hide SQLite's connection model.
package sqlitepool

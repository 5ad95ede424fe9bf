// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the JourneyTrack poller configuration.
//
// Configuration comes from a single YAML file specified by either the
// JOURNEYTRACK_CONFIG environment variable or the -config flag. There
// is no automatic discovery and environment variables never override
// file values; the one expansion performed is ${VAR} / ${VAR:-default}
// inside path fields, for portability of database and heartbeat
// locations.
//
// Defaults mirror the deployed system: scan every 5s, at most 5
// in-flight device requests, 10s reply timeout, session sweep every
// 300s.
package config

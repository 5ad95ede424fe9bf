// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by JourneyTrack
// binaries: fatal error reporting to stderr for errors that occur
// before (or instead of) the structured logger, and the matching
// process exit. Everything else a binary prints goes through slog or,
// for the CLI, through its own renderers.
package process

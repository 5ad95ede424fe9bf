// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Journeytrack is the operator CLI for a JourneyTrack deployment. It
// provides subcommands for inspecting a running poller (status) and
// querying the device log store directly (logs list, logs export).
package main

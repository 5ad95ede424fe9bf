// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides lifecycle plumbing shared by JourneyTrack
// daemons.
//
// [HTTPServer] runs an http.Handler on a TCP listener with the
// lifecycle every long-running JourneyTrack process uses: Serve(ctx)
// binds the listener, signals readiness, and blocks until the context
// is cancelled, then drains in-flight requests before returning. The
// poller uses it for the health and status surface; the handler
// (routing, response shapes) belongs to the caller.
package service

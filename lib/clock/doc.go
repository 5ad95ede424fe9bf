// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for the poller's periodic loops so that
// tests can drive scan cycles, timeout sweeps, and heartbeats
// deterministically.
//
// Production code injects Real(). Tests inject Fake(initial) and move
// time explicitly:
//
//	clk := clock.Fake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
//	engine := newEngine(clk, ...)
//	go engine.Run(ctx)
//	clk.WaitForTimers(1)          // engine registered its scan ticker
//	clk.Advance(5 * time.Second)  // first cycle fires, deterministically
//
// WaitForTimers removes the race between a goroutine registering a
// ticker and the test advancing past its first deadline; without it
// the advance could happen before the ticker exists and the tick would
// be lost.
package clock

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time surface the poller's loops run on. Production code
// injects Real(); tests inject Fake() and control time with Advance.
//
// Anything that would call time.Now, time.After, or time.NewTicker
// takes a Clock instead (usually as a struct field set at
// construction).
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0 the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on C every d.
	// Panics if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. The channel has capacity 1,
// matching time.Ticker: when the consumer falls behind, ticks are
// dropped rather than queued. Call Stop to release the ticker.
type Ticker struct {
	// C delivers ticks. Buffered with capacity 1.
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. No ticks are delivered after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stop() }

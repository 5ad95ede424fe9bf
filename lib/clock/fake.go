// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at the given instant. Time moves only
// when Advance is called. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. After and NewTicker
// register waiters; Advance fires every waiter whose deadline falls
// within the new time, in deadline order, so interleaved timers and
// tickers fire in a reproducible sequence.
type FakeClock struct {
	mu         sync.Mutex
	current    time.Time
	waiters    []*waiter
	registered *sync.Cond
}

// waiter is a pending After channel or ticker. A ticker has a non-zero
// period and is rescheduled each time it fires; an After waiter fires
// once and is discarded.
type waiter struct {
	deadline time.Time
	ch       chan time.Time
	period   time.Duration
	stopped  bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock has advanced by
// at least d. If d <= 0 the channel receives immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.waiters = append(c.waiters, &waiter{deadline: c.current.Add(d), ch: ch})
	c.registered.Broadcast()
	return ch
}

// NewTicker returns a Ticker firing every d once the clock advances.
// Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w := &waiter{
		deadline: c.current.Add(d),
		ch:       make(chan time.Time, 1),
		period:   d,
	}
	c.waiters = append(c.waiters, w)
	c.registered.Broadcast()

	return &Ticker{
		C: w.ch,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			w.stopped = true
		},
	}
}

// Advance moves the clock forward by d, firing expired waiters in
// deadline order. Channel sends never block: like time.Ticker, a tick
// that finds the buffer full is dropped. A ticker whose period fits
// several times into d fires once per elapsed period.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.current.Add(d)
	c.current = target

	for {
		next := c.earliestExpired(target)
		if next == nil {
			return
		}
		select {
		case next.ch <- next.deadline:
		default:
		}
		if next.period > 0 {
			next.deadline = next.deadline.Add(next.period)
		} else {
			next.remove(c)
		}
	}
}

// earliestExpired returns the live waiter with the earliest deadline
// not after target, or nil. Caller holds c.mu.
func (c *FakeClock) earliestExpired(target time.Time) *waiter {
	var found *waiter
	for _, w := range c.waiters {
		if w.stopped || w.deadline.After(target) {
			continue
		}
		if found == nil || w.deadline.Before(found.deadline) {
			found = w
		}
	}
	return found
}

// remove deletes w from the waiter list. Caller holds c.mu.
func (w *waiter) remove(c *FakeClock) {
	for i, candidate := range c.waiters {
		if candidate == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// WaitForTimers blocks until at least n waiters (After channels or
// tickers) are registered and live. Call it before Advance when the
// waiters are registered from another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.liveCount() < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of live waiters.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveCount()
}

// liveCount counts non-stopped waiters. Caller holds c.mu.
func (c *FakeClock) liveCount() int {
	count := 0
	for _, w := range c.waiters {
		if !w.stopped {
			count++
		}
	}
	return count
}

// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"
)

// requestState is the lifecycle state of a pendingRequest. A request
// starts pending and makes exactly one transition to a terminal state.
type requestState int

const (
	statePending requestState = iota
	stateResolved
	stateTimedOut
	stateFailed
)

func (s requestState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateResolved:
		return "resolved"
	case stateTimedOut:
		return "timed_out"
	case stateFailed:
		return "failed"
	}
	return fmt.Sprintf("requestState(%d)", int(s))
}

// pendingRequest is one in-flight telemetry request: dispatched to a
// device, awaiting its reply. The correlation table owns the entry
// from register until a claim removes it.
type pendingRequest struct {
	correlationID string
	sessionID     int64
	deviceIMEI    string
	issuedAt      time.Time
	deadline      time.Time
	state         requestState
}

// correlationTable tracks in-flight requests by correlation id, with a
// session index so the dispatcher can refuse a second concurrent
// request for the same session. Three goroutines touch the table (the
// scan loop, the reply delivery goroutine, and the timeout sweep); all
// mutation serializes through the mutex, and claim is the single point
// where a request leaves the pending state. Claims are first-wins:
// whichever of reply, timeout, or send failure claims first decides
// the persisted outcome, and every later claim for the same id reports
// failure so the caller discards.
type correlationTable struct {
	mu        sync.Mutex
	byID      map[string]*pendingRequest
	bySession map[int64]*pendingRequest
}

func newCorrelationTable() *correlationTable {
	return &correlationTable{
		byID:      make(map[string]*pendingRequest),
		bySession: make(map[int64]*pendingRequest),
	}
}

// register inserts entry as pending. A duplicate correlation id means
// the id minting is broken (the ids carry 64 random bits); callers
// treat the returned error as fatal.
func (t *correlationTable) register(entry *pendingRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.byID[entry.correlationID]; ok {
		return fmt.Errorf("correlation id %s already registered for session %d",
			entry.correlationID, existing.sessionID)
	}
	entry.state = statePending
	t.byID[entry.correlationID] = entry
	t.bySession[entry.sessionID] = entry
	return nil
}

// claim transitions the entry with the given correlation id from
// pending to the given terminal state, removes it from the table, and
// returns it. It returns false when the id is unknown or was already
// claimed; the caller must then discard its result instead of
// persisting a second record.
func (t *correlationTable) claim(correlationID string, terminal requestState) (*pendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.byID[correlationID]
	if !ok {
		return nil, false
	}
	t.remove(entry, terminal)
	return entry, true
}

// claimExpired claims every pending entry whose deadline has elapsed
// as timed out, in a single critical section so a concurrent reply
// cannot race an individual expiry. Results are ordered by session id
// for stable logs.
func (t *correlationTable) claimExpired(now time.Time) []*pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []*pendingRequest
	for _, entry := range t.byID {
		if entry.deadline.After(now) {
			continue
		}
		expired = append(expired, entry)
	}
	for _, entry := range expired {
		t.remove(entry, stateTimedOut)
	}
	slices.SortFunc(expired, func(a, b *pendingRequest) int {
		return cmp.Compare(a.sessionID, b.sessionID)
	})
	return expired
}

// remove marks entry terminal and deletes it from both indexes.
// Caller holds t.mu.
func (t *correlationTable) remove(entry *pendingRequest, terminal requestState) {
	entry.state = terminal
	delete(t.byID, entry.correlationID)
	delete(t.bySession, entry.sessionID)
}

// pendingFor reports whether sessionID already has an in-flight
// request.
func (t *correlationTable) pendingFor(sessionID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.bySession[sessionID]
	return ok
}

// pendingCount returns the number of in-flight requests.
func (t *correlationTable) pendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

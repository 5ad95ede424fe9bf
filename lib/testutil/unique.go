// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use it when tests need identifiers
// that stay distinguishable across subtests, such as correlation ids
// or device IMEIs.
//
//	corrID := testutil.UniqueID("corr") // "corr-1", "corr-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

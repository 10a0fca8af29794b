// Package testutil holds deterministic helpers shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start of a Clock.
var Epoch = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

// Clock is a wall clock for tests. Each call to Now returns the current
// instant and then advances it by the step, so generated data (expiry
// dates, timestamps) is identical across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewClock creates a clock at start that advances by step per reading.
// A zero step makes it a fixed clock.
func NewClock(start time.Time, step time.Duration) *Clock {
	start = start.UTC()
	return &Clock{start: start, now: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Reset moves the clock back to its start.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}

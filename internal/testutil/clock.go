// Package testutil provides deterministic helpers shared by harness
// tests: a logical clock for stable trace sequence numbers.
package testutil

import "sync"

// DeterministicClock stamps trace events with monotonic logical
// sequence numbers instead of wall time, so a run re-executed with a
// fresh clock produces an identical event log. It satisfies
// trace.Clock.
//
// Next is safe for concurrent use; hold releases may race the run
// context's goroutine.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

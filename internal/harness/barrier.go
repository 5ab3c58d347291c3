package harness

import (
	"context"
	"sync"
)

// barrier is the join primitive gating the readiness transition: a
// reference count of outstanding holds plus an idle channel closed
// whenever the count drops to zero.
//
// Holds may be acquired and released from any goroutine. wait returns
// once every acquired hold has been released; releasing a hold while
// others remain outstanding only decrements the count.
type barrier struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

// newBarrier creates a barrier with no outstanding holds. wait on a
// fresh barrier returns immediately.
func newBarrier() *barrier {
	b := &barrier{idle: make(chan struct{})}
	close(b.idle)
	return b
}

// hold increments the count and returns a single-use release function.
//
// Each hold must be released exactly once. Releasing twice panics: a
// count driven negative would make the barrier falsely appear always
// ready, so over-release is surfaced loudly rather than swallowed.
func (b *barrier) hold() (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.n++
	if b.n == 1 {
		b.idle = make(chan struct{})
	}

	released := false
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if released {
			panic("harness: hold released twice")
		}
		released = true

		b.n--
		if b.n < 0 {
			panic("harness: hold count went negative")
		}
		if b.n == 0 {
			close(b.idle)
		}
	}
}

// outstanding returns the current hold count.
func (b *barrier) outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// wait blocks until all holds are released or ctx is done.
//
// The count is rechecked after each idle signal: a hold acquired
// between the channel closing and the waiter waking re-arms the wait.
func (b *barrier) wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		if b.n == 0 {
			b.mu.Unlock()
			return nil
		}
		ch := b.idle
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Package tracker counts chain steps that are currently waiting on their delay.
package tracker

import "sync/atomic"

// Tracker is safe for concurrent use. A nil Tracker ignores all calls.
type Tracker struct {
	running atomic.Int64
}

// Begin marks one step as running and returns the func that ends it.
func (t *Tracker) Begin() (end func()) {
	if t == nil {
		return func() {}
	}
	t.running.Add(1)
	return func() { t.running.Add(-1) }
}

// Running returns the number of steps in progress.
func (t *Tracker) Running() int64 {
	if t == nil {
		return 0
	}
	return t.running.Load()
}

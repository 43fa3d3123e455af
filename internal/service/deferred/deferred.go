// Package deferred provides a value that becomes available later and
// settles exactly once, with two ways to consume it: registering a
// callback with Then, or suspending on Await.
package deferred

import (
	"context"
	"fmt"
	"time"
)

// Deferred is a handle to a value that is not available yet.
type Deferred[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// settle runs fn and records its outcome. A panic in fn becomes the error.
func (d *Deferred[T]) settle(fn func() (T, error)) {
	defer close(d.done)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			d.value, d.err = zero, fmt.Errorf("deferred: panic: %v", r)
		}
	}()
	d.value, d.err = fn()
}

// After runs fn once delay has elapsed. The timer is never stopped:
// once scheduled, fn always runs.
func After[T any](delay time.Duration, fn func() (T, error)) *Deferred[T] {
	d := newDeferred[T]()
	time.AfterFunc(delay, func() { d.settle(fn) })
	return d
}

// Delay settles with v after delay. It never fails.
func Delay[T any](delay time.Duration, v T) *Deferred[T] {
	return After(delay, func() (T, error) { return v, nil })
}

// Done returns a channel that is closed once d has settled.
func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// Await blocks until d settles or ctx is done.
//
// Cancelling ctx only abandons the wait; the underlying work still runs
// to completion.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	default:
	}

	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls cb exactly once with the settled outcome, on a goroutine
// other than the caller's.
func (d *Deferred[T]) Then(cb func(T, error)) {
	go func() {
		<-d.done
		cb(d.value, d.err)
	}()
}

// Package user resolves the fixed user record in three styles: callback,
// deferred value and awaited deferred value. All three share one delayed
// fetch and differ only in how the caller receives the outcome.
package user

import (
	"context"
	"time"

	"github.com/iliamunaev/async-styles/internal/apperr"
	"github.com/iliamunaev/async-styles/internal/model"
	"github.com/iliamunaev/async-styles/internal/service/deferred"
)

// DefaultDelay is how long every fetch takes.
const DefaultDelay = time.Second

// Default is the record served when no other is configured.
var Default = model.User{ID: 123, Name: "Abdul Basit"}

// Service hands out copies of a single user record after a delay.
type Service struct {
	record model.User
	delay  time.Duration
}

// New creates a Service for record. A negative delay is treated as zero.
func New(record model.User, delay time.Duration) *Service {
	if delay < 0 {
		delay = 0
	}
	return &Service{record: record, delay: delay}
}

// fetch settles with a copy of the record, or with failWith when it is non-nil.
func (s *Service) fetch(failWith error) *deferred.Deferred[model.User] {
	return deferred.After(s.delay, func() (model.User, error) {
		if failWith != nil {
			return model.User{}, failWith
		}
		return s.record, nil
	})
}

// Callback invokes cb with (nil, user) on success or (err, nil) on failure.
func (s *Service) Callback(fail bool, cb func(error, *model.User)) {
	s.fetch(failure(fail, apperr.ErrCallbackFailed)).Then(func(u model.User, err error) {
		if err != nil {
			cb(err, nil)
			return
		}
		cb(nil, &u)
	})
}

// Promise returns a handle that settles with the user or ErrPromiseFailed.
func (s *Service) Promise(fail bool) *deferred.Deferred[model.User] {
	return s.fetch(failure(fail, apperr.ErrPromiseFailed))
}

// Async waits on Promise and returns its outcome unchanged.
func (s *Service) Async(ctx context.Context, fail bool) (model.User, error) {
	return s.Promise(fail).Await(ctx)
}

func failure(fail bool, err error) error {
	if fail {
		return err
	}
	return nil
}

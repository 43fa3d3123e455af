// Package apperr holds the error values shared by the services and the
// HTTP transport, along with their classification.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// simulatedError is a deliberate failure requested through a query parameter.
type simulatedError struct {
	msg  string
	kind string
}

func (e *simulatedError) Error() string { return e.msg }
func (e *simulatedError) Kind() string  { return e.kind }

var (
	ErrCallbackFailed = &simulatedError{msg: "Simulated callback API failure", kind: "callback_failed"}
	ErrPromiseFailed  = &simulatedError{msg: "Simulated promise API failure", kind: "promise_failed"}

	ErrLoginFailed  = &simulatedError{msg: "Login failed (simulated).", kind: "login_failed"}
	ErrFetchFailed  = &simulatedError{msg: "Data fetch failed (simulated).", kind: "fetch_failed"}
	ErrRenderFailed = &simulatedError{msg: "Render failed (simulated).", kind: "render_failed"}
)

// FileError reports a failure to read a bundled file.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return "Failed to read " + e.Name + ": " + e.Err.Error() }
func (e *FileError) Unwrap() error { return e.Err }
func (e *FileError) Kind() string  { return "file_read" }

// kinder is satisfied by errors that carry a classification kind.
type kinder interface {
	Kind() string
}

// Kind returns a short label for err, used in logs and metrics.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// HTTPStatus maps err to a response status. Every failure is reported as
// an internal server error; callers distinguish causes by message only.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

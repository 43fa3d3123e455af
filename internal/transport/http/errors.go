package httptransport

import (
	"fmt"
	"net/http"

	"github.com/iliamunaev/async-styles/internal/apperr"
	"github.com/iliamunaev/async-styles/internal/model"
)

// handlerFunc is a route handler that leaves failure reporting to the caller.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc, sending any error, including a
// panic, to reportError.
func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := call(fn, w, r); err != nil {
			h.reportError(w, r, err)
		}
	}
}

// call runs fn and turns a panic into an error. http.ErrAbortHandler is
// re-raised so the server can abort the response.
func call(fn handlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(w, r)
}

// reportError is the single place where failures become responses.
func (h *Handler) reportError(w http.ResponseWriter, r *http.Request, err error) {
	route := requestRoute(r)
	h.logger.ErrorContext(r.Context(), "ERROR: "+err.Error(),
		"kind", apperr.Kind(err),
		"route", route,
	)
	writeJSON(w, apperr.HTTPStatus(err), model.ErrorEnvelope{
		OK:    false,
		Error: err.Error(),
		Route: route,
	})
}

// requestRoute is the URI exactly as the client sent it.
func requestRoute(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

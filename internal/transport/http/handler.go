// Package httptransport implements the HTTP API: one route per
// asynchronous style, all failures funnelled through a single reporter.
package httptransport

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iliamunaev/async-styles/internal/apperr"
	"github.com/iliamunaev/async-styles/internal/model"
	"github.com/iliamunaev/async-styles/internal/service/chain"
	"github.com/iliamunaev/async-styles/internal/service/deferred"
)

// Style names reported in success envelopes.
const (
	StyleCallback = "callback"
	StylePromise  = "promise"
	StyleAsync    = "async/await"
	StyleChain    = "promise-chain"
)

// SampleFile is the bundled file served by /file.
const SampleFile = "sample.txt"

var indexText = strings.Join([]string{
	"async-styles demo server is running.",
	"Available endpoints:",
	"/callback   /promise   /async   /file   /chain",
	"Use ?fail=true to simulate an error, e.g. /promise?fail=true",
	"Use /chain?failAt=login|fetch|render to fail a specific step.",
}, "\n")

type userFetcher interface {
	Callback(fail bool, cb func(error, *model.User))
	Promise(fail bool) *deferred.Deferred[model.User]
	Async(ctx context.Context, fail bool) (model.User, error)
}

type chainRunner interface {
	Run(ctx context.Context, failAt chain.FailurePoint) (model.ChainResult, []string, error)
}

// Handler serves the demo endpoints.
type Handler struct {
	users  userFetcher
	chain  chainRunner
	files  fs.FS
	logger *slog.Logger
}

// New returns a Handler. It panics if users, runner or files is nil.
// A nil logger discards output.
func New(users userFetcher, runner chainRunner, files fs.FS, logger *slog.Logger) *Handler {
	if users == nil {
		panic("httptransport.New: nil user fetcher")
	}
	if runner == nil {
		panic("httptransport.New: nil chain runner")
	}
	if files == nil {
		panic("httptransport.New: nil file system")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{users: users, chain: runner, files: files, logger: logger}
}

// Router mounts every route behind the given middlewares.
func (h *Handler) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Use(middleware.Recoverer)

	r.Get("/", h.HandleIndex)
	r.Get("/callback", h.handle(h.HandleCallback))
	r.Get("/promise", h.handle(h.HandlePromise))
	r.Get("/async", h.handle(h.HandleAsync))
	r.Get("/file", h.handle(h.HandleFile))
	r.Get("/chain", h.handle(h.HandleChain))
	return r
}

// HandleIndex lists the available endpoints.
func (h *Handler) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, []byte(indexText))
}

// HandleCallback resolves the user through the callback style.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) error {
	type outcome struct {
		user *model.User
		err  error
	}
	ch := make(chan outcome, 1)
	h.users.Callback(shouldFail(r), func(err error, u *model.User) {
		ch <- outcome{user: u, err: err}
	})

	out := <-ch
	if out.err != nil {
		return out.err
	}
	writeJSON(w, http.StatusOK, model.DataEnvelope{OK: true, Style: StyleCallback, Data: *out.user})
	return nil
}

// HandlePromise resolves the user by waiting on a deferred value.
func (h *Handler) HandlePromise(w http.ResponseWriter, r *http.Request) error {
	u, err := h.users.Promise(shouldFail(r)).Await(detach(r))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, model.DataEnvelope{OK: true, Style: StylePromise, Data: u})
	return nil
}

// HandleAsync resolves the user through the blocking wrapper.
func (h *Handler) HandleAsync(w http.ResponseWriter, r *http.Request) error {
	u, err := h.users.Async(detach(r), shouldFail(r))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, model.DataEnvelope{OK: true, Style: StyleAsync, Data: u})
	return nil
}

// HandleFile returns the bundled sample file as plain text.
func (h *Handler) HandleFile(w http.ResponseWriter, _ *http.Request) error {
	content, err := fs.ReadFile(h.files, SampleFile)
	if err != nil {
		return &apperr.FileError{Name: SampleFile, Err: err}
	}
	writeText(w, http.StatusOK, content)
	return nil
}

// HandleChain runs the login, fetch, render sequence.
func (h *Handler) HandleChain(w http.ResponseWriter, r *http.Request) error {
	failAt := chain.ParseFailurePoint(r.URL.Query().Get("failAt"))

	res, lines, err := h.chain.Run(detach(r), failAt)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, model.ChainEnvelope{OK: true, Style: StyleChain, Result: res, Log: lines})
	return nil
}

// shouldFail is true only for the exact query value "true".
func shouldFail(r *http.Request) bool {
	return r.URL.Query().Get("fail") == "true"
}

// detach keeps request values but ignores client disconnects, so
// in-flight work always runs to completion.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// writeJSON writes v as a JSON response with the given status code.
// The Content-Type is set to application/json; charset=utf-8.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

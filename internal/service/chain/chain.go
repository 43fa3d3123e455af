// Package chain runs the fixed login, fetch, render sequence.
//
// Each step waits for its delay in full, appends a timestamped line to the
// run's log and only then checks whether the run was asked to fail at that
// step. Failing at step N therefore still yields N log lines.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliamunaev/async-styles/internal/apperr"
	"github.com/iliamunaev/async-styles/internal/model"
	"github.com/iliamunaev/async-styles/internal/service/deferred"
	"github.com/iliamunaev/async-styles/internal/service/tracker"
)

// FailurePoint names the step at which a run aborts.
type FailurePoint string

const (
	FailNone   FailurePoint = ""
	FailLogin  FailurePoint = "login"
	FailFetch  FailurePoint = "fetch"
	FailRender FailurePoint = "render"
)

// ParseFailurePoint is case-insensitive. Unknown values mean no failure.
func ParseFailurePoint(s string) FailurePoint {
	switch fp := FailurePoint(strings.ToLower(s)); fp {
	case FailLogin, FailFetch, FailRender:
		return fp
	default:
		return FailNone
	}
}

// State is the position of a run in the sequence.
type State int

const (
	StateInit State = iota
	StateLoggingIn
	StateFetchingData
	StateRendering
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoggingIn:
		return "logging_in"
	case StateFetchingData:
		return "fetching_data"
	case StateRendering:
		return "rendering"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Delays is the wait before entering each state.
type Delays struct {
	Login  time.Duration
	Fetch  time.Duration
	Render time.Duration
	Done   time.Duration
}

// DefaultDelays returns the standard step timing.
func DefaultDelays() Delays {
	return Delays{
		Login:  400 * time.Millisecond,
		Fetch:  600 * time.Millisecond,
		Render: 500 * time.Millisecond,
		Done:   300 * time.Millisecond,
	}
}

// Step outcomes reported to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Observer receives the duration and outcome of every step.
type Observer interface {
	ObserveStep(step, outcome string, d time.Duration)
}

// Runner executes chain runs. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	user     model.User
	delays   Delays
	tracker  *tracker.Tracker
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracker counts steps in progress on tr.
func WithTracker(tr *tracker.Tracker) Option { return func(r *Runner) { r.tracker = tr } }

// WithObserver reports step timings to o.
func WithObserver(o Observer) Option { return func(r *Runner) { r.observer = o } }

// WithLogger writes each log line to l as well.
func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithClock sets the clock used to timestamp log lines.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

// New creates a Runner rendering user with the given delays.
func New(user model.User, delays Delays, opts ...Option) *Runner {
	r := &Runner{
		user:   user,
		delays: delays,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type step struct {
	name    string
	state   State
	delay   time.Duration
	message string
	abortAt FailurePoint
	err     error
}

func (r *Runner) steps(u model.User) []step {
	return []step{
		{name: "login", state: StateLoggingIn, delay: r.delays.Login, message: "Step 1: Logging in...", abortAt: FailLogin, err: apperr.ErrLoginFailed},
		{name: "fetch", state: StateFetchingData, delay: r.delays.Fetch, message: "Step 2: Fetching data...", abortAt: FailFetch, err: apperr.ErrFetchFailed},
		{name: "render", state: StateRendering, delay: r.delays.Render, message: "Step 3: Rendering UI for " + u.Name + "...", abortAt: FailRender, err: apperr.ErrRenderFailed},
		{name: "done", state: StateDone, delay: r.delays.Done, message: "Done!"},
	}
}

// Run executes one chain. It returns the log lines appended so far in every
// case, so callers can report progress even when the run fails.
//
// ctx only bounds the waits between steps; pass a context that is never
// cancelled to always run to completion.
func (r *Runner) Run(ctx context.Context, failAt FailurePoint) (model.ChainResult, []string, error) {
	u := r.user
	steps := r.steps(u)
	lines := make([]string, 0, len(steps))
	state := StateInit

	for _, st := range steps {
		start := time.Now()

		end := r.tracker.Begin()
		_, err := deferred.Delay(st.delay, struct{}{}).Await(ctx)
		end()
		if err != nil {
			r.observe(st.name, OutcomeCanceled, time.Since(start))
			r.transition(ctx, state, StateFailed, err)
			return model.ChainResult{}, lines, err
		}

		r.transition(ctx, state, st.state, nil)
		state = st.state
		lines = append(lines, r.stamp(ctx, st.message))

		if st.abortAt != FailNone && failAt == st.abortAt {
			r.observe(st.name, OutcomeFailed, time.Since(start))
			r.transition(ctx, state, StateFailed, st.err)
			return model.ChainResult{}, lines, st.err
		}
		r.observe(st.name, OutcomeOK, time.Since(start))
	}

	return model.ChainResult{
		User: u,
		HTML: "<h1>Hello, " + u.Name + "</h1>",
	}, lines, nil
}

func (r *Runner) stamp(ctx context.Context, msg string) string {
	line := r.now().Format("3:04:05 PM") + " - " + msg
	if r.logger != nil {
		r.logger.InfoContext(ctx, line)
	}
	return line
}

func (r *Runner) transition(ctx context.Context, from, to State, err error) {
	if r.logger == nil {
		return
	}
	if err != nil {
		r.logger.DebugContext(ctx, "chain transition", "from", from, "to", to, "err", err)
		return
	}
	r.logger.DebugContext(ctx, "chain transition", "from", from, "to", to)
}

func (r *Runner) observe(step, outcome string, d time.Duration) {
	if r.observer != nil {
		r.observer.ObserveStep(step, outcome, d)
	}
}

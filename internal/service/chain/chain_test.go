package chain

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/iliamunaev/async-styles/internal/apperr"
	"github.com/iliamunaev/async-styles/internal/model"
	"github.com/iliamunaev/async-styles/internal/service/tracker"
)

var testUser = model.User{ID: 123, Name: "Abdul Basit"}

func fastDelays() Delays {
	return Delays{Login: 2 * time.Millisecond, Fetch: 3 * time.Millisecond, Render: 2 * time.Millisecond, Done: time.Millisecond}
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
}

type recordingObserver struct {
	mu    sync.Mutex
	steps []string
}

func (o *recordingObserver) ObserveStep(step, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step+":"+outcome)
}

func TestParseFailurePoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want FailurePoint
	}{
		{in: "", want: FailNone},
		{in: "login", want: FailLogin},
		{in: "LOGIN", want: FailLogin},
		{in: "Fetch", want: FailFetch},
		{in: "render", want: FailRender},
		{in: "done", want: FailNone},
		{in: "login ", want: FailNone},
		{in: "nope", want: FailNone},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseFailurePoint(tt.in))
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	const (
		l1 = "3:04:05 PM - Step 1: Logging in..."
		l2 = "3:04:05 PM - Step 2: Fetching data..."
		l3 = "3:04:05 PM - Step 3: Rendering UI for Abdul Basit..."
		l4 = "3:04:05 PM - Done!"
	)

	tests := []struct {
		name      string
		failAt    FailurePoint
		wantLog   []string
		wantErr   error
		wantSteps []string
	}{
		{
			name:      "success",
			failAt:    FailNone,
			wantLog:   []string{l1, l2, l3, l4},
			wantSteps: []string{"login:ok", "fetch:ok", "render:ok", "done:ok"},
		},
		{
			name:      "fail_login",
			failAt:    FailLogin,
			wantLog:   []string{l1},
			wantErr:   apperr.ErrLoginFailed,
			wantSteps: []string{"login:failed"},
		},
		{
			name:      "fail_fetch",
			failAt:    FailFetch,
			wantLog:   []string{l1, l2},
			wantErr:   apperr.ErrFetchFailed,
			wantSteps: []string{"login:ok", "fetch:failed"},
		},
		{
			name:      "fail_render",
			failAt:    FailRender,
			wantLog:   []string{l1, l2, l3},
			wantErr:   apperr.ErrRenderFailed,
			wantSteps: []string{"login:ok", "fetch:ok", "render:failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			obs := &recordingObserver{}
			r := New(testUser, fastDelays(), WithClock(fixedClock), WithObserver(obs))

			res, lines, err := r.Run(context.Background(), tt.failAt)

			assert.Equal(t, tt.wantLog, lines)
			assert.Equal(t, tt.wantSteps, obs.steps)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
				assert.Equal(t, model.ChainResult{}, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testUser, res.User)
			assert.Equal(t, "<h1>Hello, Abdul Basit</h1>", res.HTML)
		})
	}
}

func TestRun_AbortWaitsForStepDelay(t *testing.T) {
	t.Parallel()

	d := Delays{Login: 20 * time.Millisecond, Fetch: 30 * time.Millisecond}
	r := New(testUser, d)

	start := time.Now()
	_, lines, err := r.Run(context.Background(), FailFetch)

	assert.ErrorIs(t, err, apperr.ErrFetchFailed)
	assert.Len(t, lines, 2)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRun_UsesConfiguredName(t *testing.T) {
	t.Parallel()

	r := New(model.User{ID: 1, Name: "Ada"}, fastDelays())

	res, lines, err := r.Run(context.Background(), FailNone)

	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Step 3: Rendering UI for Ada...")
	assert.Equal(t, "<h1>Hello, Ada</h1>", res.HTML)
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := New(testUser, Delays{Login: time.Millisecond, Fetch: time.Second}, WithObserver(obs))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, lines, err := r.Run(ctx, FailNone)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, lines, 1)
	assert.Equal(t, []string{"login:ok", "fetch:canceled"}, obs.steps)
}

func TestRun_TrackerSettles(t *testing.T) {
	t.Parallel()

	tr := &tracker.Tracker{}
	r := New(testUser, Delays{Login: 30 * time.Millisecond}, WithTracker(tr))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = r.Run(context.Background(), FailLogin)
	}()

	assert.Eventually(t, func() bool { return tr.Running() == 1 }, time.Second, time.Millisecond)
	<-done
	assert.Equal(t, int64(0), tr.Running())
}

func TestRun_ConcurrentRunsIndependent(t *testing.T) {
	t.Parallel()

	r := New(testUser, fastDelays())
	points := []FailurePoint{FailNone, FailLogin, FailFetch, FailRender}
	wantLines := map[FailurePoint]int{FailNone: 4, FailLogin: 1, FailFetch: 2, FailRender: 3}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 40; i++ {
		fp := points[i%len(points)]
		g.Go(func() error {
			_, lines, err := r.Run(ctx, fp)
			if len(lines) != wantLines[fp] {
				return fmt.Errorf("failAt=%q: expected %d lines, got %d", fp, wantLines[fp], len(lines))
			}
			if (fp == FailNone) != (err == nil) {
				return fmt.Errorf("failAt=%q: unexpected err %v", fp, err)
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "logging_in", StateLoggingIn.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(42)", State(42).String())
}

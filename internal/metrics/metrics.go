// Package metrics exposes request and chain step metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliamunaev/async-styles/internal/service/tracker"
)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
}

// New registers the collectors. The running-steps gauge reads from tr.
func New(tr *tracker.Tracker) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by route and status.",
			},
			[]string{"route", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_step_duration_seconds",
				Help:    "Duration of chain steps by step and outcome.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2.5},
			},
			[]string{"step", "outcome"},
		),
	}
	running := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chain_steps_running",
			Help: "Number of chain steps currently waiting on their delay.",
		},
		func() float64 { return float64(tr.Running()) },
	)
	m.registry.MustRegister(m.requests, m.stepDuration, running)
	return m
}

// ObserveRequest counts one finished request.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveStep records one chain step.
func (m *Metrics) ObserveStep(step, outcome string, d time.Duration) {
	m.stepDuration.WithLabelValues(step, outcome).Observe(d.Seconds())
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

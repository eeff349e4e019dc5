// Package metrics exposes the Prometheus metrics of the booking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds booking lifecycle metrics. A nil *Metrics records nothing.
type Metrics struct {
	// BookingsCreated is the total number of bookings created.
	BookingsCreated prometheus.Counter

	// Transitions counts applied status transitions.
	Transitions *prometheus.CounterVec

	// SweepRuns counts sweep passes by result (ok, error, skipped).
	SweepRuns *prometheus.CounterVec

	// SweepDuration is the time taken by a sweep pass.
	SweepDuration prometheus.Histogram

	// SweepFailures counts bookings a sweep could not transition.
	SweepFailures prometheus.Counter
}

// New creates and registers the metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_created_total",
			Help: "Total number of bookings created",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Total number of applied booking status transitions",
		}, []string{"from", "to", "actor"}),
		SweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_sweep_runs_total",
			Help: "Total number of lifecycle sweep passes",
		}, []string{"result"}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "booking_sweep_duration_seconds",
			Help:    "Time taken by a lifecycle sweep pass",
			Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10},
		}),
		SweepFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_sweep_failures_total",
			Help: "Total number of bookings a sweep failed to transition",
		}),
	}
}

// IncCreated increments the created counter.
func (m *Metrics) IncCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

// IncTransition records one applied transition.
func (m *Metrics) IncTransition(from, to, actor string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to, actor).Inc()
}

// ObserveSweep records one sweep pass.
func (m *Metrics) ObserveSweep(result string, seconds float64, failures int) {
	if m == nil {
		return
	}
	m.SweepRuns.WithLabelValues(result).Inc()
	if result != "skipped" {
		m.SweepDuration.Observe(seconds)
	}
	if failures > 0 {
		m.SweepFailures.Add(float64(failures))
	}
}

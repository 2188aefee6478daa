// Package metrics exposes prometheus counters for the review workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the workflow counters. A nil *Metrics is valid and
// turns every method into a no-op.
type Metrics struct {
	iterations           prometheus.Counter
	iterationFailures    prometheus.Counter
	criticFailures       *prometheus.CounterVec
	aggregationFallbacks prometheus.Counter
	scoringFallbacks     prometheus.Counter
}

// New creates the workflow metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorum",
			Name:      "iterations_total",
			Help:      "Completed review iterations, including failed ones.",
		}),
		iterationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorum",
			Name:      "iteration_failures_total",
			Help:      "Iterations that terminated with a whole-iteration error.",
		}),
		criticFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quorum",
			Name:      "critic_failures_total",
			Help:      "Individual critic invocations that errored out.",
		}, []string{"critic"}),
		aggregationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorum",
			Name:      "aggregation_fallbacks_total",
			Help:      "Aggregations that used the deterministic fallback.",
		}),
		scoringFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quorum",
			Name:      "scoring_fallbacks_total",
			Help:      "Confidence scorings that degraded to the lexical rationale.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.iterations,
			m.iterationFailures,
			m.criticFailures,
			m.aggregationFallbacks,
			m.scoringFallbacks,
		)
	}

	return m
}

// IterationCompleted records a finished iteration.
func (m *Metrics) IterationCompleted(failed bool) {
	if m == nil {
		return
	}
	m.iterations.Inc()
	if failed {
		m.iterationFailures.Inc()
	}
}

// CriticFailed records one critic error.
func (m *Metrics) CriticFailed(critic string) {
	if m == nil {
		return
	}
	m.criticFailures.WithLabelValues(critic).Inc()
}

// AggregationDegraded records a fallback aggregation.
func (m *Metrics) AggregationDegraded() {
	if m == nil {
		return
	}
	m.aggregationFallbacks.Inc()
}

// ScoringDegraded records a degraded confidence scoring.
func (m *Metrics) ScoringDegraded() {
	if m == nil {
		return
	}
	m.scoringFallbacks.Inc()
}

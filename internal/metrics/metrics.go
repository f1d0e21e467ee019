// Package metrics exposes Prometheus mirrors of the per-arbiter counters
// for scraping. The arbiter's own counters stay plain ints (single owner,
// single thread); this package is the process-wide aggregated view.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for cortex.
type Metrics struct {
	// Arbiter metrics
	ModeTransitions   *prometheus.CounterVec
	BackgroundRequest *prometheus.CounterVec
	BackgroundResult  *prometheus.CounterVec
	FastPlanActions   *prometheus.CounterVec
	PlanStepsExecuted *prometheus.CounterVec
	UpdateLatency     *prometheus.HistogramVec

	// Backend metrics
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// Default creates and registers all cortex metrics once and returns the
// shared instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			ModeTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cortex_mode_transitions_total",
					Help: "Total number of arbiter control-mode transitions",
				},
				[]string{"agent_id", "from", "to"},
			),
			BackgroundRequest: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cortex_background_requests_total",
					Help: "Total number of background plan requests dispatched",
				},
				[]string{"agent_id"},
			),
			BackgroundResult: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cortex_background_results_total",
					Help: "Total number of background plan results by outcome",
				},
				[]string{"agent_id", "outcome"}, // outcome: success, failure
			),
			FastPlanActions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cortex_fast_plan_actions_total",
					Help: "Total number of actions produced by the fast planner",
				},
				[]string{"agent_id"},
			),
			PlanStepsExecuted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cortex_plan_steps_executed_total",
					Help: "Total number of background plan steps executed",
				},
				[]string{"agent_id"},
			),
			UpdateLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cortex_update_latency_seconds",
					Help:    "Arbiter update latency in seconds",
					Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10), // 1µs to 262ms
				},
				[]string{"agent_id"},
			),
			BackendRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cortex_backend_requests_total",
					Help: "Total number of reasoning-backend requests",
				},
				[]string{"provider", "success"},
			),
			BackendLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "cortex_backend_request_duration_seconds",
					Help:    "Reasoning-backend request duration in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to 51s
				},
				[]string{"provider"},
			),
		}
	})
	return sharedMetrics
}

// RecordBackendRequest records one reasoning-backend round trip.
func (m *Metrics) RecordBackendRequest(provider string, success bool, seconds float64) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(provider, strconv.FormatBool(success)).Inc()
	m.BackendLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordModeTransition records an arbiter mode change.
func (m *Metrics) RecordModeTransition(agentID, from, to string) {
	if m == nil {
		return
	}
	m.ModeTransitions.WithLabelValues(agentID, from, to).Inc()
}

// RecordUpdate records one arbiter update's latency.
func (m *Metrics) RecordUpdate(agentID string, seconds float64) {
	if m == nil {
		return
	}
	m.UpdateLatency.WithLabelValues(agentID).Observe(seconds)
}

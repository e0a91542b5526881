// Package metrics exposes Prometheus counters for rule invocations, file
// moves and observed vault changes.
package metrics

import (
	"net/http"

	"github.com/arthur-debert/tidyvault/pkg/errors"
	"github.com/arthur-debert/tidyvault/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tidyvault"

// Invocation results used as label values
const (
	ResultCompleted = "completed"
)

// Metrics holds every tidyvault collector on its own registry
type Metrics struct {
	registry *prometheus.Registry

	Invocations        *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	InFlight           prometheus.Gauge
	Moves              *prometheus.CounterVec
	Matched            *prometheus.CounterVec
	Changes            *prometheus.CounterVec
}

// New creates the collectors and registers them with Go runtime metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rule",
				Name:      "invocations_total",
				Help:      "Total number of rule invocations by result",
			},
			[]string{"rule", "result"},
		),

		InvocationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rule",
				Name:      "invocation_duration_seconds",
				Help:      "Rule invocation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"rule"},
		),

		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "rule",
				Name:      "invocations_in_flight",
				Help:      "Number of rule invocations currently running",
			},
		),

		Moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "moves",
				Name:      "total",
				Help:      "Total number of file moves by status",
			},
			[]string{"rule", "status"},
		),

		Matched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rule",
				Name:      "matched_files_total",
				Help:      "Total number of files matched by rule patterns",
			},
			[]string{"rule"},
		),

		Changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "vault",
				Name:      "changes_total",
				Help:      "Observed vault changes by operation and origin",
			},
			[]string{"op", "origin"},
		),
	}

	m.registry.MustRegister(
		m.Invocations,
		m.InvocationDuration,
		m.InFlight,
		m.Moves,
		m.Matched,
		m.Changes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InvocationStarted marks one invocation as running
func (m *Metrics) InvocationStarted() {
	m.InFlight.Inc()
}

// InvocationFinished records a finished invocation
func (m *Metrics) InvocationFinished(report *types.RunReport) {
	m.InFlight.Dec()

	result := ResultCompleted
	if report.Err != nil {
		result = string(errors.GetErrorCode(report.Err))
	}
	m.Invocations.WithLabelValues(report.RuleID, result).Inc()
	m.InvocationDuration.WithLabelValues(report.RuleID).Observe(report.Duration.Seconds())
	if report.Matched > 0 {
		m.Matched.WithLabelValues(report.RuleID).Add(float64(report.Matched))
	}
}

// ObserveMove records one move outcome
func (m *Metrics) ObserveMove(ruleID string, outcome types.MoveOutcome) {
	m.Moves.WithLabelValues(ruleID, string(outcome.Status)).Inc()
}

// ObserveChange records one vault change. Its signature matches
// notify.ChangeHook.
func (m *Metrics) ObserveChange(event types.ChangeEvent, _ types.InvocationToken, self bool) {
	origin := "external"
	if self {
		origin = "rule"
	}
	m.Changes.WithLabelValues(event.Op.String(), origin).Inc()
}

// Package metrics exposes Prometheus metrics for the consensus engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineMetrics collects batch and decision metrics
type EngineMetrics struct {
	registry *prometheus.Registry

	BatchRuns          prometheus.Counter
	BatchDuration      prometheus.Histogram
	GamesEvaluated     prometheus.Counter
	DecisionsGenerated *prometheus.CounterVec
	DecisionsBlocked   *prometheus.CounterVec
	ParseErrors        prometheus.Counter
	EvalErrors         *prometheus.CounterVec
	EligibleCappers    prometheus.Gauge
}

// NewEngineMetrics creates and registers the engine metric set
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	m := &EngineMetrics{
		registry: registry,

		BatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consensus_batch_runs_total",
			Help: "Total number of batch invocations",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "consensus_batch_duration_seconds",
			Help:    "Batch invocation duration",
			Buckets: prometheus.DefBuckets,
		}),
		GamesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consensus_games_evaluated_total",
			Help: "Total games evaluated across batches",
		}),
		DecisionsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensus_decisions_generated_total",
				Help: "Meta-picks generated",
			},
			[]string{"sport_key", "market"},
		),
		DecisionsBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensus_decisions_blocked_total",
				Help: "Groups blocked by the conflict table",
			},
			[]string{"reason_code"},
		),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consensus_parse_errors_total",
			Help: "Selections dropped as unparseable or invalid-market",
		}),
		EvalErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensus_eval_errors_total",
				Help: "Per-game evaluation failures",
			},
			[]string{"stage"},
		),
		EligibleCappers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "consensus_eligible_cappers",
			Help: "Eligible cappers in the latest snapshot",
		}),
	}

	registry.MustRegister(
		m.BatchRuns,
		m.BatchDuration,
		m.GamesEvaluated,
		m.DecisionsGenerated,
		m.DecisionsBlocked,
		m.ParseErrors,
		m.EvalErrors,
		m.EligibleCappers,
	)

	return m
}

// Handler returns the HTTP handler serving the registry
func (m *EngineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

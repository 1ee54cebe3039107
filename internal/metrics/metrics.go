// Package metrics registers Prometheus collectors for the decision pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "underwriter_stage_duration_seconds",
			Help:    "Duration of pipeline stage execution in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"stage"},
	)

	StageOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriter_stage_outcomes_total",
			Help: "Pipeline stage results by outcome (parsed, fallback, error)",
		},
		[]string{"stage", "outcome"},
	)

	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriter_decisions_total",
			Help: "Completed decision runs by terminal status",
		},
		[]string{"status"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriter_llm_tokens_total",
			Help: "Tokens consumed by model invocations",
		},
		[]string{"provider", "model", "direction"},
	)

	LLMCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriter_llm_cost_usd_total",
			Help: "Estimated USD cost of model invocations",
		},
		[]string{"provider", "model"},
	)

	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "underwriter_active_runs",
			Help: "Decision runs currently executing",
		},
	)
)

// ObserveStage records one stage execution.
func ObserveStage(stage, outcome string, elapsed time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	StageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// ObserveInvocation records token usage and cost for one model call.
func ObserveInvocation(provider, model string, inputTokens, outputTokens int, cost decimal.Decimal) {
	LLMTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	LLMTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	LLMCost.WithLabelValues(provider, model).Add(cost.InexactFloat64())
}

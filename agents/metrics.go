package agents

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for pipeline runs.
//
// All metrics are namespaced "tradingagents". A nil *Metrics is valid
// and records nothing, so instrumented code never branches on whether
// monitoring is configured.
type Metrics struct {
	stageLatency *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	modelRetries *prometheus.CounterVec
	runs         *prometheus.CounterVec
	reflections  *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics.
//
// Pass prometheus.DefaultRegisterer for the global registry, or a
// dedicated registry for isolation.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		stageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tradingagents",
			Name:      "stage_latency_ms",
			Help:      "Stage execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		}, []string{"stage", "status"}),

		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradingagents",
			Name:      "tool_calls_total",
			Help:      "Data-retrieval tool invocations",
		}, []string{"category", "tool", "status"}),

		modelRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradingagents",
			Name:      "model_retries_total",
			Help:      "Retried model calls",
		}, []string{"stage"}),

		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradingagents",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by extracted signal",
		}, []string{"signal"}),

		reflections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradingagents",
			Name:      "reflections_total",
			Help:      "Per-role reflection outcomes",
		}, []string{"role", "status"}),
	}
}

// RecordStageLatency records one stage execution.
func (m *Metrics) RecordStageLatency(stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage, status).Observe(float64(d.Milliseconds()))
}

// RecordToolCall records one tool invocation.
func (m *Metrics) RecordToolCall(category, tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(category, tool, status).Inc()
}

// RecordModelRetry records one retried model call.
func (m *Metrics) RecordModelRetry(stage string) {
	if m == nil {
		return
	}
	m.modelRetries.WithLabelValues(stage).Inc()
}

// RecordRun records one completed run by its canonical signal.
func (m *Metrics) RecordRun(signal Signal) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(signal)).Inc()
}

// RecordReflection records one per-role reflection outcome.
func (m *Metrics) RecordReflection(role Role, status string) {
	if m == nil {
		return
	}
	m.reflections.WithLabelValues(string(role), status).Inc()
}

// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quote sources.
const (
	SourceWorker = "worker"
	SourceHTTP   = "http"
	SourceCLI    = "cli"
)

// Quote outcomes.
const (
	OutcomePriced     = "priced"
	OutcomeIncomplete = "incomplete"
	OutcomeFailed     = "calculation_failed"
	OutcomeError      = "error"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	QuoteEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_evaluations_total",
			Help: "Quote evaluations by entry point and outcome",
		},
		[]string{"source", "outcome"},
	)

	QuoteEvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quote_evaluation_duration_seconds",
			Help:    "Time spent resolving visibility and evaluating the formula",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"source"},
	)
)

// ObserveQuote records one evaluation.
func ObserveQuote(source, outcome string, started time.Time) {
	QuoteEvaluations.WithLabelValues(source, outcome).Inc()
	QuoteEvaluationDuration.WithLabelValues(source).Observe(time.Since(started).Seconds())
}

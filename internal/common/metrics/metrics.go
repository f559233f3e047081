// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
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

	// GenerationCalls counts generation service calls by stage (step, synthesize, audit, refine)
	// and outcome (ok, no_credential, service_error, malformed, timeout).
	GenerationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_generation_calls_total",
			Help: "Total number of generation service calls",
		},
		[]string{"stage", "outcome"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfq_generation_duration_seconds",
			Help:    "Duration of generation service calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"stage"},
	)

	FallbacksUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_fallbacks_total",
			Help: "Total number of deterministic fallback results served",
		},
		[]string{"reason"},
	)

	AuditOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_audit_outcomes_total",
			Help: "Audited generations by outcome (passed, refined, refine_failed, unaudited)",
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_document_cache_lookups_total",
			Help: "Audited-document cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_http_requests_total",
			Help: "HTTP API requests by route and status",
		},
		[]string{"route", "status"},
	)
)

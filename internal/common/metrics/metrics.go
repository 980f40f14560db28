// internal/common/metrics/metrics.go
package metrics

import (
	"time"

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

	AgentGenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_generation_requests_total",
			Help: "Agent generation requests by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	AgentGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_generation_duration_seconds",
			Help:    "End-to-end agent generation time in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
		},
		[]string{"mode"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Chat completion calls by pipeline stage and outcome",
		},
		[]string{"stage", "status"},
	)

	LLMFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallbacks_total",
			Help: "Pipeline stages that fell back to the rule engine",
		},
		[]string{"stage"},
	)

	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_side_effect_failures_total",
			Help: "Best-effort cache, store, index and notify failures",
		},
		[]string{"component"},
	)
)

// ObserveGeneration records one finished generation request.
func ObserveGeneration(mode string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	AgentGenerationRequests.WithLabelValues(mode, status).Inc()
	AgentGenerationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveJob records the outcome of one worker job.
func ObserveJob(taskType string, errorCode string, elapsed time.Duration) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

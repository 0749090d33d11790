package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessonmarket_job_runs_total",
			Help: "Total background job runs",
		},
		[]string{"job"},
	)

	JobErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessonmarket_job_errors_total",
			Help: "Total background job errors",
		},
		[]string{"job"},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lessonmarket_job_duration_seconds",
			Help:    "Background job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(JobRuns, JobErrors, JobDuration)
}

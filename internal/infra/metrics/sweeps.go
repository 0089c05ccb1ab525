package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sweepRunsTotal, sweepDuration) }

var (
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Periodic sweep runs by job and result.",
		},
		[]string{"job", "result"}, // result: 'ok', 'error', 'skipped'
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of periodic sweeps.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func ObserveSweep(job, result string, seconds float64) {
	sweepRunsTotal.WithLabelValues(norm(job), norm(result)).Inc()
	sweepDuration.WithLabelValues(norm(job)).Observe(seconds)
}

package jobcenter

import "github.com/prometheus/client_golang/prometheus"

// Collectors per SPEC_FULL.md §2.7.
var (
	JobQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jobcenter_queue_depth",
		Help: "Jobs currently Ready (unleased) in a queue.",
	}, []string{"queue"})

	JobWaiters = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "jobcenter_waiters",
		Help: "Connections currently blocked in a wait get() on a queue.",
	}, []string{"queue"})

	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobcenter_jobs_total",
		Help: "Requests processed, by operation.",
	}, []string{"op"})

	JobsGiven = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobcenter_jobs_given",
		Help: "Jobs handed to a client via get().",
	})
)

func init() {
	prometheus.MustRegister(
		JobQueueDepth,
		JobWaiters,
		JobsTotal,
		JobsGiven,
	)
}

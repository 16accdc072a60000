package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lottery"

var (
	// Registry holds the lottery server collectors.
	Registry = prometheus.NewRegistry()

	BetsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "stored_total",
			Help:      "Total number of bets persisted, by agency.",
		},
		[]string{"agency"},
	)

	BetsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bets",
			Name:      "rejected_total",
			Help:      "Total number of bet sub-frames that failed to parse or validate.",
		},
	)

	Batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batches",
			Name:      "received_total",
			Help:      "Total number of batches received, by response sent.",
		},
		[]string{"result"},
	)

	FinishedAgencies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "barrier",
			Name:      "finished_agencies",
			Help:      "Distinct agencies that signaled the end of their transmission.",
		},
	)

	LotteryRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Lottery executions, by outcome.",
		},
		[]string{"result"},
	)

	LotteryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Duration of lottery executions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Agency sessions currently being served.",
		},
	)
)

func init() {
	Registry.MustRegister(
		BetsStored,
		BetsRejected,
		Batches,
		FinishedAgencies,
		LotteryRuns,
		LotteryDuration,
		ActiveSessions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

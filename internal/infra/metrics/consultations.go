package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		consultationsTotal,
		consultationDuration,
		pollAttempts,
		pollWaitSeconds,
		transportFailuresTotal,
		watchedJobs,
	)
}

var (
	consultationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consultations_total",
			Help: "Finished consultations by tool and envelope code.",
		},
		[]string{"tool", "code"}, // code is 'OK' on success
	)

	consultationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consultation_duration_seconds",
			Help:    "End-to-end consultation latency distribution.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 900},
		},
		[]string{"tool"},
	)

	pollAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_attempts",
			Help:    "Status checks needed per polling loop, by outcome.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"outcome"},
	)

	pollWaitSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_wait_seconds",
			Help:    "Total wall time spent inside a polling loop, by outcome.",
			Buckets: []float64{2, 5, 10, 30, 60, 120, 300, 600, 900},
		},
		[]string{"outcome"},
	)

	transportFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "poll_transport_failures_total",
			Help: "Transient transport failures absorbed by polling loops.",
		},
	)

	watchedJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "watcher_tracked_jobs",
			Help: "Jobs currently tracked by the background completion watcher.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncConsultation(tool, code string, elapsed time.Duration) {
	if code == "" {
		code = "OK"
	}
	consultationsTotal.WithLabelValues(norm(tool), code).Inc()
	consultationDuration.WithLabelValues(norm(tool)).Observe(elapsed.Seconds())
}

func ObservePoll(attempts int, elapsed time.Duration, outcome string) {
	pollAttempts.WithLabelValues(norm(outcome)).Observe(float64(attempts))
	pollWaitSeconds.WithLabelValues(norm(outcome)).Observe(elapsed.Seconds())
}

func IncTransportFailure() { transportFailuresTotal.Inc() }

func SetWatchedJobs(n int) { watchedJobs.Set(float64(n)) }

// ABOUTME: Prometheus collectors for the REST surface.
// ABOUTME: Requests partitioned by endpoint and outcome, plus latency.

package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "casefile",
			Name:      "requests_total",
			Help:      "Query requests handled, partitioned by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	requestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "casefile",
			Name:      "request_seconds",
			Help:      "Query request latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestSeconds)
}

func observeRequest(endpoint string, duration time.Duration, err error) {
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	requestSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

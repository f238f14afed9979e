package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// providerReqs counts adapter calls by provider, operation and outcome
	// ("ok" or an error Kind).
	providerReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of outbound provider calls.",
		},
		[]string{"provider", "operation", "outcome"},
	)

	// providerLat includes retries and backoff waits.
	providerLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds, retries included.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	// breakerState is 0 closed, 1 half-open, 2 open.
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_circuit_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open).",
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(providerReqs, providerLat, breakerState)
}

func observe(provider, operation string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	providerReqs.WithLabelValues(provider, operation, outcome).Inc()
	providerLat.WithLabelValues(provider, operation).Observe(d.Seconds())
}

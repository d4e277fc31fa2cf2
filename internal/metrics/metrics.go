// Package metrics provides Prometheus instrumentation for the RISC client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeSuccess   = "success"
	OutcomeAPIError  = "api_error"
	OutcomeTimeout   = "timeout"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed_response"
)

// Snapshot results used as the "result" label.
const (
	SnapshotAccepted      = "accepted"
	SnapshotStale         = "stale"
	SnapshotUndecryptable = "undecryptable"
	SnapshotInvalid       = "invalid"
)

var (
	// RequestsTotal counts API calls by method, path, and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "risc",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total RISC API calls by method, path, and outcome.",
		},
		[]string{"method", "path", "outcome"},
	)

	// RequestDuration observes round-trip latency by method and path.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "risc",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "RISC API round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SnapshotsTotal counts snapshot decryptions by result.
	SnapshotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "risc",
			Subsystem: "client",
			Name:      "snapshots_total",
			Help:      "Snapshot decryptions by result.",
		},
		[]string{"result"},
	)

	// NonceFallbackTotal counts nonces drawn from the pseudo-random fallback.
	NonceFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "risc",
		Subsystem: "client",
		Name:      "nonce_fallback_total",
		Help:      "Request nonces generated without a secure random source.",
	})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		SnapshotsTotal,
		NonceFallbackTotal,
	)
}

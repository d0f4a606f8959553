package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promogen_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promogen_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "path", "status_class"},
	)

	// Execution engine metrics
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promogen_credential_attempts_total",
			Help: "Provider call attempts per credential outcome",
		},
		[]string{"kind", "outcome"},
	)

	RotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promogen_credential_rotations_total",
			Help: "Failover rotations to an alternate credential",
		},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promogen_response_cache_hits_total",
			Help: "Response cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promogen_response_cache_misses_total",
			Help: "Response cache misses",
		},
	)

	PollCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promogen_operation_poll_cycles_total",
			Help: "Long-running operation poll cycles",
		},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promogen_gateway_fallbacks_total",
			Help: "Managed-path reachability failures recovered by the direct path",
		},
		[]string{"kind"},
	)

	StreamInterruptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "promogen_stream_interruptions_total",
			Help: "Chat streams that failed after partial delivery",
		},
	)
)

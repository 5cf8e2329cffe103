package storeapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// Request outcomes used as the "outcome" label.
const (
	outcomeSuccess     = "success"
	outcomeResponse    = "response_failure"
	outcomeTransport   = "transport_failure"
	outcomeDecode      = "decode_failure"
	outcomeCircuitOpen = "circuit_open"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeapi_requests_total",
			Help: "Total number of backend API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	responseStatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeapi_response_status_total",
			Help: "Backend API responses by operation and HTTP status code",
		},
		[]string{"operation", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeapi_request_duration_seconds",
			Help:    "Backend API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storeapi_circuit_breaker_state",
			Help: "Current state of the backend circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

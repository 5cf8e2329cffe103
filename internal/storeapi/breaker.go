package storeapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the optional circuit breaker in front of the
// backend. The zero value leaves the breaker disabled.
type BreakerConfig struct {
	Enabled bool

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the failure counts while closed. 0 never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once this share of requests has failed.
	FailureRatio float64

	// MinRequests must be seen before FailureRatio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns an enabled breaker with conservative limits.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// statusError is how a 5xx answer is reported to the breaker so it counts as
// a failure. It never leaves the package.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend answered %d", e.code)
}

// callerAbortError marks a transport error caused by the caller's own
// context ending. The backend is not at fault, so the breaker ignores it.
type callerAbortError struct {
	err error
}

func (e *callerAbortError) Error() string { return e.err.Error() }

func (e *callerAbortError) Unwrap() error { return e.err }

// breakerSuccess reports whether an outcome leaves the failure counts alone.
func breakerSuccess(err error) bool {
	var aborted *callerAbortError
	return err == nil || errors.As(err, &aborted)
}

const breakerName = "storeapi"

func newBreaker(cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[*http.Response] {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: breakerSuccess,
	}

	breakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[*http.Response](settings)
}

package storeapi

import (
	"errors"

	"github.com/sony/gobreaker/v2"
)

// Response failures. A non-2xx answer collapses to the operation's error;
// the status code is logged and counted but never carried by the error.
var (
	ErrFetchProducts = errors.New("Failed to fetch products")
	ErrCreateProduct = errors.New("Failed to create product")
	ErrFetchReviews  = errors.New("Failed to fetch reviews")
	ErrCreateReview  = errors.New("Failed to create review")
	ErrDeleteProduct = errors.New("Failed to delete product")
	ErrDeleteReview  = errors.New("Failed to delete review")
)

var (
	// ErrTransport marks a request that never produced an HTTP response. The
	// underlying net/url error is wrapped alongside it.
	ErrTransport = errors.New("storeapi: transport failure")

	// ErrDecode marks a 2xx response whose body was not the expected JSON.
	ErrDecode = errors.New("storeapi: decode response")

	// ErrMissingID is returned before any I/O when an id argument is empty.
	ErrMissingID = errors.New("storeapi: id is required")

	// ErrCircuitOpen is returned without I/O while the breaker is open.
	ErrCircuitOpen = gobreaker.ErrOpenState
)

var responseFailures = []error{
	ErrFetchProducts,
	ErrCreateProduct,
	ErrFetchReviews,
	ErrCreateReview,
	ErrDeleteProduct,
	ErrDeleteReview,
}

// IsResponseFailure reports whether err is one of the per-operation
// response failures, i.e. the backend answered with a non-2xx status.
func IsResponseFailure(err error) bool {
	for _, target := range responseFailures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsUnavailable reports whether err means the backend could not be reached:
// a transport failure or an open circuit.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

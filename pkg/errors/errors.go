package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in JSON error payloads.
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUpstream       = errors.New("upstream request failed")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is an error carrying a machine-readable code, a message safe to
// show to the end user and the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Upstream creates a 502 error for a backend call that answered with a
// non-success status. message is shown to the user as-is.
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeUpstream,
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     errors.Join(ErrUpstream, cause),
	}
}

// Unavailable creates a 503 error for a backend that could not be reached.
func Unavailable(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrServiceUnavail, cause),
	}
}

// Classify returns the AppError in err's chain. Errors without one are
// mapped by sentinel; anything unrecognised becomes a 500 whose message
// hides the cause.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return &AppError{Code: CodeInvalidInput, Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, ErrUpstream):
		return &AppError{Code: CodeUpstream, Message: "upstream request failed", Status: http.StatusBadGateway, Err: err}
	case errors.Is(err, ErrServiceUnavail):
		return &AppError{Code: CodeUnavailable, Message: "service unavailable", Status: http.StatusServiceUnavailable, Err: err}
	default:
		return &AppError{Code: CodeInternal, Message: "an internal error occurred", Status: http.StatusInternalServerError, Err: err}
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	return Classify(err).Status
}

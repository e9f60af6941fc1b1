package inkwell

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes.
// Use errors.Is() to check.
var (
	ErrInvalidRequest = errors.New("inkwell: invalid request")
	ErrUnauthorized   = errors.New("inkwell: unauthorized")
	ErrProvider       = errors.New("inkwell: upstream provider error")
	ErrServer         = errors.New("inkwell: server error")
)

// APIError is the decoded error body of a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inkwell: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap maps the API error code onto a sentinel for errors.Is checks.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 401:
		return ErrUnauthorized
	case e.Code == "validation_failed" || e.Code == "bad_request":
		return ErrInvalidRequest
	case e.Code == "provider_error":
		return ErrProvider
	default:
		return ErrServer
	}
}

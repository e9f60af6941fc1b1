package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput signals empty or malformed query text.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrCompletionProvider signals a completion provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrSearchBackend signals a retrieval backend failure.
	ErrSearchBackend = errors.New("search backend error")
	// ErrNoDataInRange signals zero documents for a time window.
	// Legitimate short-circuit outcome, not a failure.
	ErrNoDataInRange = errors.New("no data in range")
)

// PipelineError is an uncaught failure that reached the pipeline boundary.
// It carries diagnostic metadata only; the raw cause is never shown to users.
type PipelineError struct {
	Stage     string
	RequestID string
	At        time.Time
	Err       error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps err with the failing stage and timestamp.
func NewPipelineError(stage, requestID string, err error) *PipelineError {
	return &PipelineError{Stage: stage, RequestID: requestID, At: time.Now().UTC(), Err: err}
}

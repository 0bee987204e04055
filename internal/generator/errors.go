package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/lingua/internal/llm"
)

// SchemaInvalidError means the backend answered but the payload failed
// schema or structural validation.
type SchemaInvalidError struct {
	ExerciseType string
	Err          error
}

func (e *SchemaInvalidError) Error() string {
	return fmt.Sprintf("generated %s content is invalid: %v", e.ExerciseType, e.Err)
}

func (e *SchemaInvalidError) Unwrap() error { return e.Err }

// UpstreamUnavailableError means the backend could not be reached or
// refused the request.
type UpstreamUnavailableError struct {
	Provider string
	Err      error
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("generation backend %s unavailable: %v", e.Provider, e.Err)
}

func (e *UpstreamUnavailableError) Unwrap() error { return e.Err }

// UpstreamTimeoutError means the backend did not answer within the
// generation timeout.
type UpstreamTimeoutError struct {
	Provider string
	Timeout  time.Duration
	Err      error
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("generation backend %s timed out after %s", e.Provider, e.Timeout)
}

func (e *UpstreamTimeoutError) Unwrap() error { return e.Err }

// classify maps a provider error onto the three adapter error types.
func classify(err error, exerciseType, provider string, timeout time.Duration) error {
	var tmo *llm.ErrTimeout
	switch {
	case isPayloadError(err):
		return &SchemaInvalidError{ExerciseType: exerciseType, Err: err}
	case errors.As(err, &tmo), errors.Is(err, context.DeadlineExceeded):
		return &UpstreamTimeoutError{Provider: provider, Timeout: timeout, Err: err}
	default:
		return &UpstreamUnavailableError{Provider: provider, Err: err}
	}
}

// isPayloadError reports whether the backend answered but its output was
// unusable.
func isPayloadError(err error) bool {
	var invResp *llm.ErrInvalidResponse
	var maxTok *llm.ErrMaxTokensExceeded
	return errors.As(err, &invResp) || errors.As(err, &maxTok)
}

// IsUpstream reports whether err is a backend failure rather than a bad payload.
func IsUpstream(err error) bool {
	var unavail *UpstreamUnavailableError
	var tmo *UpstreamTimeoutError
	return errors.As(err, &unavail) || errors.As(err, &tmo)
}

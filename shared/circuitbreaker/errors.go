package circuitbreaker

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrCircuitOpen is returned when the call was rejected without being attempted
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrUpstreamFailure matches every error produced by the protected call itself
	ErrUpstreamFailure = errors.New("upstream call failed")
	// ErrTimeout matches protected calls that exceeded the configured timeout
	ErrTimeout = errors.New("upstream call timed out")
	// ErrUnexpectedResult is returned by Execute when the call result has the wrong type
	ErrUnexpectedResult = errors.New("unexpected protected call result type")
)

// UpstreamError wraps an error returned by the protected call
type UpstreamError struct {
	Name    string
	Err     error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match ErrUpstreamFailure, and ErrTimeout for timeouts
func (e *UpstreamError) Is(target error) bool {
	if target == ErrUpstreamFailure {
		return true
	}
	return e.Timeout && target == ErrTimeout
}

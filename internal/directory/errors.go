package directory

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNetwork wraps every transport failure talking to the hospital API,
	// timeouts included.
	ErrNetwork = errors.New("hospital api unreachable")

	// ErrTimeout is returned when a request was cancelled by its deadline.
	ErrTimeout = errors.New("hospital api request timed out")

	// ErrUpstreamShape is returned when a response matches none of the known
	// slot/day schemas.
	ErrUpstreamShape = errors.New("unrecognized upstream response shape")

	// ErrMissingMobile is returned when a patient call has no mobile number.
	ErrMissingMobile = errors.New("mobile number is required")
)

// TimeoutError reports a request that hit its deadline. It matches both
// ErrTimeout and ErrNetwork.
type TimeoutError struct {
	Endpoint string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("%s: request timeout after %s", e.Endpoint, e.After)
	}
	return fmt.Sprintf("%s: request timeout", e.Endpoint)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == ErrNetwork
}

// StatusError is a non-2xx response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: hospital api returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

package beacon

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyEndpoint = errors.New("please enter an endpoint URL")
	ErrMissingConfig = errors.New("endpoint URL is not configured")
	ErrInvalidConfig = errors.New("endpoint URL must end with " + RequiredSuffix)
)

// HTTPStatusError is a non-2xx answer from the endpoint.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// RemoteError is an {"ok":false} acknowledgment.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "endpoint reported failure"
	}
	return e.Message
}

// TransportError wraps network level failures (DNS, refused, timeouts).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

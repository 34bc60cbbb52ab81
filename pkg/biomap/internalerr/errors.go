package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingAPIKey = errors.New("missing API key")
)

// RemoteServiceError reports a failed call to a remote web service: either
// the service was unreachable or it answered with a non-success status.
type RemoteServiceError struct {
	Service    string
	URL        string
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d from %s: %s", e.Service, e.StatusCode, e.URL, msg)
	}
	return fmt.Sprintf("%s: request to %s failed: %s", e.Service, e.URL, msg)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a response body whose JSON or CSV shape
// does not match what the caller expects.
type MalformedResponseError struct {
	Service string
	Reason  string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %s: %v", e.Service, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Service, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Malformed is shorthand for building a *MalformedResponseError.
func Malformed(service, reason string, err error) error {
	return &MalformedResponseError{Service: service, Reason: reason, Err: err}
}

package domain

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by the first operation that needs a
// credential when none is configured. Construction never fails on a missing
// key; the error surfaces before any network call is attempted.
var ErrMissingAPIKey = errors.New("bfl: API key is not set (set BFL_API_KEY or Config.APIKey)")

// RequestError reports a non-2xx response from the service. It carries the
// status code and the raw body so the caller can decide its own retry
// policy; the client never retries internally.
type RequestError struct {
	StatusCode int
	Body       []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("bfl: API returned status %d: %s", e.StatusCode, e.Body)
}

// NotFoundError reports polling an unknown or expired task id. It is fatal
// for that id and must not be retried.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bfl: task %q not found", e.ID)
}

// ServiceError reports a response body that does not match the expected
// schema. Body preserves the raw payload for diagnosis.
type ServiceError struct {
	Body []byte
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bfl: unexpected response from service: %v", e.Err)
	}
	return "bfl: unexpected response from service"
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNoURL is returned when a POST is attempted without a target.
	ErrNoURL = errors.New("transport: url is required")
	// ErrNoClient is returned when the HTTP client has been explicitly unset.
	ErrNoClient = errors.New("transport: http client is not configured")
)

// Error describes a failed exchange. Op names the phase that failed
// ("encode", "request", "send", "read").
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "transport: <nil>"
	}
	if e.URL == "" {
		return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

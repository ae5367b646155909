package controller

import (
	"errors"
	"fmt"
)

// ErrNoDocument is reported when New is called without a document.
var ErrNoDocument = errors.New("controller: document is nil")

// ConfigurationError is returned by New when the form cannot be bound.
type ConfigurationError struct {
	Selector string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "controller: <nil>"
	}
	if e.Selector == "" {
		return fmt.Sprintf("controller: no form specified: %v", e.Err)
	}
	return fmt.Sprintf("controller: form %q: %v", e.Selector, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

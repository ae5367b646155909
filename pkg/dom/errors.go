package dom

import "errors"

var (
	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("dom: element not found")
	// ErrInvalidSelector is returned when a selector cannot be compiled.
	ErrInvalidSelector = errors.New("dom: invalid selector")
)

package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoForm is returned when Fill is given no form element.
	ErrNoForm = errors.New("prompt: form element is nil")
)

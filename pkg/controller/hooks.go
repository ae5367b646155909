package controller

import "sync"

// Hooks holds the host callbacks fired around a submission. Each slot has its
// own setter; a nil callback disables the slot.
type Hooks struct {
	mu         sync.RWMutex
	onSubmit   func()
	onComplete func(body string)
	onError    func(err error)
}

// SetSubmit sets the callback fired when a submission starts, or when a valid
// form is submitted with auto-submit disabled.
func (h *Hooks) SetSubmit(fn func()) {
	h.mu.Lock()
	h.onSubmit = fn
	h.mu.Unlock()
}

// SetComplete sets the callback receiving the response body.
func (h *Hooks) SetComplete(fn func(body string)) {
	h.mu.Lock()
	h.onComplete = fn
	h.mu.Unlock()
}

// SetError sets the callback receiving transport failures.
func (h *Hooks) SetError(fn func(err error)) {
	h.mu.Lock()
	h.onError = fn
	h.mu.Unlock()
}

func (h *Hooks) submit() bool {
	h.mu.RLock()
	fn := h.onSubmit
	h.mu.RUnlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (h *Hooks) complete(body string) bool {
	h.mu.RLock()
	fn := h.onComplete
	h.mu.RUnlock()
	if fn == nil {
		return false
	}
	fn(body)
	return true
}

func (h *Hooks) fail(err error) bool {
	h.mu.RLock()
	fn := h.onError
	h.mu.RUnlock()
	if fn == nil {
		return false
	}
	fn(err)
	return true
}

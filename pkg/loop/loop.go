// Package loop provides the event-loop collaborator the controller schedules
// asynchronous work on: compression, submission and verification exchanges.
package loop

import "sync"

// Scheduler runs tasks outside the current handler.
type Scheduler interface {
	Go(task func())
}

// Waiter is implemented by schedulers that can block until scheduled work has
// drained.
type Waiter interface {
	Wait()
}

// Async runs every task on its own goroutine.
type Async struct {
	wg sync.WaitGroup
}

// NewAsync returns a goroutine-backed scheduler.
func NewAsync() *Async {
	return &Async{}
}

// Go schedules task on a new goroutine.
func (a *Async) Go(task func()) {
	if task == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		task()
	}()
}

// Wait blocks until every scheduled task, including tasks scheduled while
// waiting, has returned.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Inline runs tasks synchronously on the caller's goroutine. Useful in tests
// where completion order must be deterministic.
type Inline struct{}

// Go runs task immediately.
func (Inline) Go(task func()) {
	if task != nil {
		task()
	}
}

// Wait returns immediately; inline tasks finish before Go returns.
func (Inline) Wait() {}

// Manual queues tasks until Run is called, letting tests interleave
// completions in a chosen order.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

// Go queues task.
func (m *Manual) Go(task func()) {
	if task == nil {
		return
	}
	m.mu.Lock()
	m.tasks = append(m.tasks, task)
	m.mu.Unlock()
}

// Pending reports how many tasks are queued.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunAt runs and removes the queued task at index i. It reports false when i
// is out of range.
func (m *Manual) RunAt(i int) bool {
	m.mu.Lock()
	if i < 0 || i >= len(m.tasks) {
		m.mu.Unlock()
		return false
	}
	task := m.tasks[i]
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	m.mu.Unlock()
	task()
	return true
}

// Wait drains the queue in FIFO order, including tasks queued while draining.
func (m *Manual) Wait() {
	for m.RunAt(0) {
	}
}

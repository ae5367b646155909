package dom

import (
	"context"

	"github.com/goliatone/go-formmanager/pkg/form"
)

// Event types dispatched by the adapter.
const (
	EventClick  = "click"
	EventChange = "change"
)

// Listener handles a dispatched event.
type Listener func(ev *Event)

// Event is delivered to listeners registered on the target element.
type Event struct {
	Type    string
	Target  *Element
	Context context.Context

	defaultPrevented bool
}

// PreventDefault suppresses the host's default action.
func (ev *Event) PreventDefault() {
	ev.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (ev *Event) DefaultPrevented() bool {
	return ev.defaultPrevented
}

// AddEventListener registers fn for events of type typ on the element.
func (e *Element) AddEventListener(typ string, fn Listener) {
	if fn == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	byType, ok := e.doc.listeners[e.node]
	if !ok {
		byType = make(map[string][]Listener)
		e.doc.listeners[e.node] = byType
	}
	byType[typ] = append(byType[typ], fn)
}

// Dispatch delivers an event of type typ to the element's listeners in
// registration order. Listeners run on the caller's goroutine.
func (e *Element) Dispatch(ctx context.Context, typ string) *Event {
	if ctx == nil {
		ctx = context.Background()
	}
	e.doc.mu.RLock()
	listeners := append([]Listener(nil), e.doc.listeners[e.node][typ]...)
	e.doc.mu.RUnlock()

	ev := &Event{Type: typ, Target: e, Context: ctx}
	for _, fn := range listeners {
		fn(ev)
	}
	return ev
}

// Click dispatches a click event.
func (e *Element) Click(ctx context.Context) *Event {
	return e.Dispatch(ctx, EventClick)
}

// SelectFiles replaces the file selection of a file input and dispatches a
// change event, as a user picking files would.
func (e *Element) SelectFiles(ctx context.Context, files ...form.File) *Event {
	e.doc.mu.Lock()
	e.doc.state(e.node).files = append([]form.File(nil), files...)
	e.doc.mu.Unlock()
	return e.Dispatch(ctx, EventChange)
}

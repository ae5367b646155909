package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formmanager/pkg/form"
)

// ControlsSelector matches the elements that take part in validation and
// submission.
const ControlsSelector = "input,select,textarea"

// Type reports the control type the way the DOM `type` property does.
func (e *Element) Type() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return controlType(e.node)
}

// Value returns the current value of an input, textarea or select.
func (e *Element) Value() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.doc.valueLocked(e.node)
}

// SetValue sets the current value. For selects it selects the first option
// with a matching value, or none.
func (e *Element) SetValue(value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	st := e.doc.state(e.node)
	switch controlType(e.node) {
	case form.TypeSelectOne, form.TypeSelectMultiple:
		st.selectedSet = true
		st.selected = nil
		for _, opt := range options(e.node) {
			if optionValue(opt) == value {
				st.selected = []string{value}
				break
			}
		}
	case form.TypeFile:
		// Only clearing is allowed on file inputs.
		if value == "" {
			st.files = nil
		}
	default:
		v := value
		st.value = &v
	}
}

// Checked reports the checkedness of a checkbox or radio.
func (e *Element) Checked() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.doc.checkedLocked(e.node)
}

// SetChecked sets the checkedness of a checkbox or radio.
func (e *Element) SetChecked(checked bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	c := checked
	e.doc.state(e.node).checked = &c
}

// SelectOptions selects exactly the options whose values are listed.
func (e *Element) SelectOptions(values ...string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	st := e.doc.state(e.node)
	st.selectedSet = true
	st.selected = nil
	wanted := make(map[string]struct{}, len(values))
	for _, v := range values {
		wanted[v] = struct{}{}
	}
	for _, opt := range options(e.node) {
		if _, ok := wanted[optionValue(opt)]; ok {
			st.selected = append(st.selected, optionValue(opt))
			if controlType(e.node) == form.TypeSelectOne {
				break
			}
		}
	}
}

// Options returns the option values of a select in order.
func (e *Element) Options() []string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var out []string
	for _, opt := range options(e.node) {
		out = append(out, optionValue(opt))
	}
	return out
}

// Files returns the current file selection of a file input.
func (e *Element) Files() []form.File {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if st, ok := e.doc.controls[e.node]; ok {
		return append([]form.File(nil), st.files...)
	}
	return nil
}

// Key returns the element's stable identity within the document.
func (e *Element) Key() string {
	return e.doc.keyFor(e.node)
}

// Field snapshots the control.
func (e *Element) Field() form.Field {
	key := e.Key()

	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	n := e.node
	field := form.Field{
		Key:      key,
		Type:     controlType(n),
		Value:    e.doc.valueLocked(n),
		Checked:  e.doc.checkedLocked(n),
		Required: hasAttr(n, "required"),
		Disabled: hasAttr(n, "disabled"),
	}
	field.Name, _ = attr(n, "name")
	field.Accept, _ = attr(n, "accept")
	field.MaxSize, _ = attr(n, "data-max-size")
	field.ErrorMessage, _ = attr(n, "data-error-msg")
	if field.Type == form.TypeSelectMultiple || field.Type == form.TypeSelectOne {
		field.Selected = e.doc.selectedLocked(n)
	}
	if st, ok := e.doc.controls[n]; ok && len(st.files) > 0 {
		field.Files = append([]form.File(nil), st.files...)
	}
	return field
}

// Snapshot captures the element's form controls in document order. It is
// normally called on a <form> element.
func (e *Element) Snapshot() (form.Snapshot, error) {
	controls, err := e.QueryAll(ControlsSelector)
	if err != nil {
		return form.Snapshot{}, err
	}
	snapshot := form.Snapshot{
		Action: e.AttrOr("action"),
		Method: strings.ToLower(e.AttrOr("method")),
	}
	for _, control := range controls {
		snapshot.Fields = append(snapshot.Fields, control.Field())
	}
	return snapshot, nil
}

func (d *Document) valueLocked(n *html.Node) string {
	st := d.controls[n]
	switch controlType(n) {
	case form.TypeSelectOne, form.TypeSelectMultiple:
		selected := d.selectedLocked(n)
		if len(selected) == 0 {
			return ""
		}
		return selected[0]
	case form.TypeTextarea:
		if st != nil && st.value != nil {
			return *st.value
		}
		return textContent(n)
	case form.TypeFile:
		if st != nil && len(st.files) > 0 {
			return `C:\fakepath\` + st.files[0].Name
		}
		return ""
	}
	if st != nil && st.value != nil {
		return *st.value
	}
	v, _ := attr(n, "value")
	return v
}

func (d *Document) checkedLocked(n *html.Node) bool {
	if st, ok := d.controls[n]; ok && st.checked != nil {
		return *st.checked
	}
	return hasAttr(n, "checked")
}

func (d *Document) selectedLocked(n *html.Node) []string {
	if st, ok := d.controls[n]; ok && st.selectedSet {
		return append([]string(nil), st.selected...)
	}
	opts := options(n)
	var out []string
	for _, opt := range opts {
		if hasAttr(opt, "selected") {
			out = append(out, optionValue(opt))
		}
	}
	if len(out) == 0 && controlType(n) == form.TypeSelectOne && !hasAttr(n, "size") {
		for _, opt := range opts {
			if !hasAttr(opt, "disabled") {
				return []string{optionValue(opt)}
			}
		}
	}
	if controlType(n) == form.TypeSelectOne && len(out) > 1 {
		out = out[len(out)-1:]
	}
	return out
}

func controlType(n *html.Node) string {
	switch strings.ToLower(n.Data) {
	case "textarea":
		return form.TypeTextarea
	case "select":
		if hasAttr(n, "multiple") {
			return form.TypeSelectMultiple
		}
		return form.TypeSelectOne
	case "button":
		t, _ := attr(n, "type")
		switch t = strings.ToLower(strings.TrimSpace(t)); t {
		case form.TypeButton, form.TypeReset:
			return t
		default:
			return form.TypeSubmit
		}
	case "input":
		t, _ := attr(n, "type")
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || !knownInputTypes[t] {
			return form.TypeText
		}
		return t
	}
	return ""
}

var knownInputTypes = map[string]bool{
	"text": true, "email": true, "checkbox": true, "radio": true, "file": true,
	"submit": true, "button": true, "reset": true, "image": true, "hidden": true,
	"password": true, "number": true, "tel": true, "url": true, "search": true,
	"date": true, "datetime-local": true, "month": true, "week": true, "time": true,
	"color": true, "range": true,
}

func options(n *html.Node) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) {
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, "option") {
			out = append(out, c)
		}
	})
	return out
}

func optionValue(n *html.Node) string {
	if v, ok := attr(n, "value"); ok {
		return v
	}
	return strings.Join(strings.Fields(textContent(n)), " ")
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := attr(n, name)
	return ok
}

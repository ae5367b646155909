package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formmanager/pkg/form"
)

// Document is a live HTML document. It is safe for concurrent use.
type Document struct {
	root      *html.Node
	sanitizer *bluemonday.Policy

	mu        sync.RWMutex
	controls  map[*html.Node]*controlState
	keys      map[*html.Node]string
	listeners map[*html.Node]map[string][]Listener
	nextKey   int
}

type controlState struct {
	value    *string
	checked  *bool
	selected []string
	// selectedSet distinguishes an explicit empty selection from "use the
	// markup defaults".
	selectedSet bool
	files       []form.File
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return NewDocument(root), nil
}

// ParseString parses an HTML document held in memory.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// NewDocument wraps an already built node tree.
func NewDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		sanitizer: bluemonday.UGCPolicy(),
		controls:  make(map[*html.Node]*controlState),
		keys:      make(map[*html.Node]string),
		listeners: make(map[*html.Node]map[string][]Listener),
	}
}

// Root returns the document element wrapper.
func (d *Document) Root() *Element {
	return d.wrap(d.root)
}

// Query returns the first element matching selector, or nil.
func (d *Document) Query(selector string) (*Element, error) {
	return d.Root().Query(selector)
}

// QueryAll returns every element matching selector in document order.
func (d *Document) QueryAll(selector string) ([]*Element, error) {
	return d.Root().QueryAll(selector)
}

// MustQuery is Query for fixtures; it panics when nothing matches.
func (d *Document) MustQuery(selector string) *Element {
	el, err := d.Query(selector)
	if err != nil {
		panic(err)
	}
	if el == nil {
		panic(fmt.Sprintf("dom: %q: %v", selector, ErrNotFound))
	}
	return el
}

// HTML renders the document markup. Control state (values typed by the user)
// is not reflected, matching how a browser serialises attributes.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", fmt.Errorf("dom: render: %w", err)
	}
	return buf.String(), nil
}

func (d *Document) wrap(node *html.Node) *Element {
	if node == nil {
		return nil
	}
	return &Element{doc: d, node: node}
}

func (d *Document) keyFor(node *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if key, ok := d.keys[node]; ok {
		return key
	}
	d.nextKey++
	key := fmt.Sprintf("control-%d", d.nextKey)
	d.keys[node] = key
	return key
}

// state returns the control state for node; callers hold d.mu for writing.
func (d *Document) state(node *html.Node) *controlState {
	st, ok := d.controls[node]
	if !ok {
		st = &controlState{}
		d.controls[node] = st
	}
	return st
}

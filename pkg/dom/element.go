package dom

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Element wraps a node of a Document.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node exposes the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Tag returns the lower-cased element name.
func (e *Element) Tag() string {
	return strings.ToLower(e.node.Data)
}

// Query returns the first descendant matching selector, or nil.
func (e *Element) Query(selector string) (*Element, error) {
	all, err := e.QueryAll(selector)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// QueryAll returns every descendant matching selector in document order.
// CSS selectors follow querySelectorAll; XPath expressions are accepted too.
func (e *Element) QueryAll(selector string) ([]*Element, error) {
	match, err := compileSelector(selector)
	if err != nil {
		return nil, err
	}

	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	nodes, err := match(e.node)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.doc.wrap(n))
	}
	return out, nil
}

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, name)
}

// AttrOr returns the attribute value or "".
func (e *Element) AttrOr(name string) string {
	v, _ := e.Attr(name)
	return v
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr sets or adds an attribute.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, name, value)
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.node, name)
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	for _, c := range strings.Fields(e.AttrOr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the class list when missing.
func (e *Element) AddClass(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	current, _ := attr(e.node, "class")
	classes := strings.Fields(current)
	for _, c := range classes {
		if c == name {
			return
		}
	}
	setAttr(e.node, "class", strings.Join(append(classes, name), " "))
}

// RemoveClass drops name from the class list.
func (e *Element) RemoveClass(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	current, ok := attr(e.node, "class")
	if !ok {
		return
	}
	var kept []string
	for _, c := range strings.Fields(current) {
		if c != name {
			kept = append(kept, c)
		}
	}
	setAttr(e.node, "class", strings.Join(kept, " "))
}

// Text returns the text content of the element.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return htmlquery.InnerText(e.node)
}

// InnerHTML renders the element's children.
func (e *Element) InnerHTML() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return htmlquery.OutputHTML(e.node, false)
}

// SetInnerHTML replaces the element's children with the sanitised markup.
func (e *Element) SetInnerHTML(markup string) error {
	clean := e.doc.sanitizer.Sanitize(markup)
	nodes, err := html.ParseFragment(strings.NewReader(clean), e.contextNode())
	if err != nil {
		return fmt.Errorf("dom: parse fragment: %w", err)
	}

	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeChildren(e.node)
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		e.node.AppendChild(n)
	}
	return nil
}

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeChildren(e.node)
	if text != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var buf bytes.Buffer
	_ = html.Render(&buf, e.node)
	return buf.String()
}

func (e *Element) contextNode() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: e.node.Data, DataAtom: e.node.DataAtom}
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
		walk(c, fn)
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

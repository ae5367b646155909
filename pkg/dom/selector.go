package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// matcher returns the element descendants of root that a selector matches, in
// document order.
type matcher func(root *html.Node) ([]*html.Node, error)

// compileSelector resolves selector the way querySelectorAll does. Selectors
// starting with "/", "(" or ".//" are XPath and are evaluated by htmlquery;
// anything else is CSS.
func compileSelector(selector string) (matcher, error) {
	trimmed := strings.TrimSpace(selector)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	if isXPath(trimmed) {
		return xpathMatcher(selector, trimmed), nil
	}

	group, err := cascadia.ParseGroup(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}
	return func(root *html.Node) ([]*html.Node, error) {
		return cascadia.QueryAll(root, group), nil
	}, nil
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") ||
		strings.HasPrefix(selector, "(") ||
		strings.HasPrefix(selector, ".//")
}

func xpathMatcher(selector, expr string) matcher {
	return func(root *html.Node) ([]*html.Node, error) {
		nodes, err := htmlquery.QueryAll(root, expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
		}
		matched := make(map[*html.Node]struct{}, len(nodes))
		for _, node := range nodes {
			if node.Type == html.ElementNode && node != root {
				matched[node] = struct{}{}
			}
		}
		if len(matched) == 0 {
			return nil, nil
		}
		out := make([]*html.Node, 0, len(matched))
		walk(root, func(n *html.Node) {
			if _, ok := matched[n]; ok {
				out = append(out, n)
			}
		})
		return out, nil
	}
}

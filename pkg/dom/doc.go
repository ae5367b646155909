// Package dom adapts a parsed HTML document (golang.org/x/net/html) into the
// host environment the form controller binds to. It resolves CSS-style
// selectors through antchfx/htmlquery, keeps live control state (values,
// checked flags, selected files) separate from the markup attributes the way a
// browser separates properties from attributes, dispatches click and change
// events to registered listeners, and sanitises markup written into elements
// with bluemonday.
package dom

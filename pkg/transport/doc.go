// Package transport performs the single POST exchange a form submission or a
// verification request needs. Bodies are encoded as multipart/form-data and
// response bodies are returned as opaque text regardless of status code.
package transport

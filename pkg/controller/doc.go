// Package controller binds a form element of a DOM document and runs its
// lifecycle: validation on submit clicks, optional image compression on file
// selection, asynchronous multipart submission and the host hooks around it.
//
// Only the binding lives here. Validation rules and payload construction are
// pure functions in package form; compression bookkeeping lives in package
// compress; the network exchange is a transport.Client.
package controller

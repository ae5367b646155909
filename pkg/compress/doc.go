// Package compress implements image compression for file inputs: the
// Compressor contract, a default decoder/resizer/encoder, the per-input record
// store, and the interceptor that reacts to file selection.
//
// Compression is asynchronous. Every selection on an input starts a new
// generation: the previous compression's context is cancelled and its result,
// should it still arrive, is discarded.
package compress

// Package form holds the pure core of the form manager: field snapshots taken
// from the host document, the constraints derived from their declared
// attributes, the validation pass, and the construction of the outgoing
// submission payload. Nothing in this package touches the DOM or the network;
// adapters hand in a Snapshot and apply the results.
package form

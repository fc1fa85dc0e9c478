// Package playground connects the fragment store to the preview surface.
//
// Markup and style edits recompose the live document without script. The
// run trigger clears the console, snapshots the stored script and composes
// a document that executes it. Every composed document gets its own sandbox
// instance; replacing the document tears the previous instance down, and
// diagnostics still in flight from it are discarded by instance ID.
package playground

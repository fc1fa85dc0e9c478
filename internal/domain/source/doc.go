// Package source owns the three authored fragments of a playground project.
//
// The Store is the single source of truth for the markup, stylesheet and
// script texts. Every fragment is always present; a fresh store starts from
// the built-in seed unless a Persister returns a previously saved state.
//
// Mutations are whole-fragment replacements. Each one is written through to
// the Persister; persistence failures are logged and counted but never
// surface to callers, so editing keeps working when storage is unavailable.
package source

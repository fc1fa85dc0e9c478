// Package preview assembles the three fragments into documents for the
// preview surface.
//
// Three variants exist:
//
//   - ComposeLive: style and markup only. Used on every markup/style edit so
//     typing never re-runs user script.
//   - ComposeWithScript: the live document plus the instrumented script.
//     Used on an explicit run.
//   - Standalone: all three fragments with the script exactly as authored,
//     for opening outside the playground.
//
// Composition is plain string assembly. Nothing is validated, escaped or
// executed here.
package preview

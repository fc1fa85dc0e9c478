/*
Package browser groups the server-side stand-ins for a web browser.

# Sandbox

The sandbox subpackage loads a composed playground document into an
isolated goja runtime with a minimal DOM built by goquery. Scripts run with
the same window, document and console globals a browser iframe offers, and
messages the document posts to window.parent are delivered back to the
playground through the bridge.

Each run gets a fresh runtime from a bounded pool, so no global state leaks
between runs. A run that exceeds its time budget is interrupted.
*/
package browser

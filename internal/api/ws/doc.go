// Package ws serves the /bridge WebSocket used by browser host pages.
//
// A host page relays the postMessage traffic of its sandboxed iframe as
// Inbound frames; console messages are posted to the playground bridge
// tagged with the iframe's instance ID, so messages from a replaced iframe
// are dropped there. Console and document events flow back as Frames.
package ws

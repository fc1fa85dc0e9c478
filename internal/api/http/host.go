package http

import _ "embed"

// hostPage loads each preview instance into a fresh sandboxed iframe and
// relays its console messages to /bridge tagged with that instance
//
//go:embed host.html
var hostPage []byte

package ws

import (
	"time"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// Frame types sent to clients besides playground events
const (
	FrameSystem = "system"
	FramePong   = "pong"
	FrameError  = "error"
)

// Execution modes announced in the welcome frame. In headless mode the
// server runs every document and the host page only displays it.
const (
	ModeHeadless = "headless"
	ModeBrowser  = "browser"
)

// Inbound frame types
const (
	inboundPing = "ping"
)

// Inbound is a message relayed by the host page. Console messages carry the
// instance ID of the iframe that produced them.
type Inbound struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Instance string `json:"instance,omitempty"`
}

// Frame is one server → client message
type Frame struct {
	Type       string          `json:"type"`
	Connection id.ConnectionID `json:"connection,omitempty"`
	Instance   id.SandboxID    `json:"instance,omitempty"`
	Line       string          `json:"line,omitempty"`
	Message    string          `json:"message,omitempty"`
	Mode       string          `json:"mode,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

func newFrame(frameType string) Frame {
	return Frame{Type: frameType, Timestamp: time.Now().Unix()}
}

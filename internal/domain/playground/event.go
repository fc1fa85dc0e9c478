package playground

import "github.com/GriffinCanCode/playground/internal/shared/id"

// EventType discriminates playground events
type EventType string

const (
	EventConsole  EventType = "console"  // a diagnostic line was appended
	EventCleared  EventType = "cleared"  // the console was emptied
	EventDocument EventType = "document" // a new document replaced the current one
)

// Event is pushed to subscribers on every console or document change
type Event struct {
	Type     EventType    `json:"type"`
	Instance id.SandboxID `json:"instance,omitempty"`
	Line     string       `json:"line,omitempty"`
}

package sandbox

import (
	"errors"
	"time"

	"github.com/GriffinCanCode/playground/internal/domain/bridge"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

var (
	ErrRuntimeSpent  = errors.New("sandbox runtime already executed a document")
	ErrRuntimeClosed = errors.New("sandbox runtime is closed")
)

// Config defines sandbox configuration
type Config struct {
	Timeout          time.Duration // Wall-clock budget for scripts and timers
	MaxCallStackSize int           // goja call stack limit
	MaxTimerTasks    int           // Timer callbacks run per document
	EnableDOM        bool          // Expose a document proxy built from the body
	Origin           string        // Script source name reported to window.onerror
}

// DefaultConfig returns the configuration used by the server
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		MaxCallStackSize: 1024,
		MaxTimerTasks:    1000,
		EnableDOM:        true,
		Origin:           "about:srcdoc",
	}
}

// PostFunc receives every message the page posts to window.parent
type PostFunc func(bridge.Message)

// Result summarises one document execution
type Result struct {
	Instance    id.SandboxID
	Scripts     int           // script elements executed
	Timers      int           // timer callbacks run
	Uncaught    int           // exceptions that escaped a script or callback
	Posted      int           // messages sent to window.parent
	Console     []LogEntry    // local console output, not forwarded
	DOMChanges  []DOMChange   // DOM mutations made by scripts
	Duration    time.Duration // Execution time
	Interrupted bool          // stopped by timeout or cancellation
}

// LogEntry represents local console output
type LogEntry struct {
	Level   string // log, info, warn, error, debug
	Message string
	Time    time.Time
}

// DOMChange represents a DOM modification
type DOMChange struct {
	Type     string // set_text, set_attribute, append_child, add_listener
	Selector string // #id, tag.class or tag of the target element
	Property string
	Value    string
}

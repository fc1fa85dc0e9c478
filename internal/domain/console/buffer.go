// Package console holds the ordered log of diagnostics captured from the
// sandbox.
package console

import (
	"strings"
	"sync"
)

// DefaultMaxLines bounds the buffer when no explicit limit is configured
const DefaultMaxLines = 10000

// Event is one captured diagnostic line
type Event struct {
	Message string `json:"message"`
}

// Buffer is an append-only, user-clearable log of events. When a line limit
// is set the oldest lines are evicted once it is exceeded.
type Buffer struct {
	mu    sync.RWMutex
	lines []string
	// start is the index of the oldest line once a bounded buffer is full;
	// appends then overwrite it in place
	start    int
	maxLines int
	evicted  int
	version  uint64
}

// NewBuffer creates a buffer holding at most maxLines lines; 0 means
// unbounded.
func NewBuffer(maxLines int) *Buffer {
	if maxLines < 0 {
		maxLines = 0
	}
	return &Buffer{maxLines: maxLines}
}

// Append adds an event to the end of the log
func (b *Buffer) Append(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxLines > 0 && len(b.lines) == b.maxLines {
		b.lines[b.start] = ev.Message
		b.start = (b.start + 1) % b.maxLines
		b.evicted++
	} else {
		b.lines = append(b.lines, ev.Message)
	}
	b.version++
}

// Clear discards every event
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
	b.start = 0
	b.evicted = 0
	b.version++
}

// Render joins all lines with newlines in append order
func (b *Buffer) Render() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.ordered(), "\n")
}

// Lines returns a copy of the buffered lines
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ordered()
}

// ordered returns the lines oldest first. Callers hold b.mu.
func (b *Buffer) ordered() []string {
	out := make([]string, 0, len(b.lines))
	out = append(out, b.lines[b.start:]...)
	return append(out, b.lines[:b.start]...)
}

// Len returns the number of buffered lines
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Evicted returns how many lines were dropped by the line limit since the
// last Clear.
func (b *Buffer) Evicted() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.evicted
}

// Version increases on every Append and Clear. Pollers compare it to skip
// unchanged renders.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

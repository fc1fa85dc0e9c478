// Package id generates prefixed ULIDs for playground entities.
//
// Sandbox instances and bridge connections get their own prefix so that log
// lines and bridge traffic can be attributed at a glance:
//
//	sbx_01HZY3K6C6V9Q6N1B7Q2M8R0TD   sandbox instance (one per composed document)
//	conn_01HZY3K8D2S1QW4XJ6T0B9ZC3F  browser bridge connection
//	req_01HZY3KA0N2Q9M4F7R3C8V1B6E   HTTP request
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SandboxID identifies one sandbox instance. Every composed document handed
// to a sandbox gets a fresh one.
type SandboxID string

// ConnectionID identifies a browser bridge connection
type ConnectionID string

// RequestID identifies an API request
type RequestID string

const (
	SandboxPrefix    = "sbx"
	ConnectionPrefix = "conn"
	RequestPrefix    = "req"
)

// Generator produces monotonic ULIDs
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand with monotonic
// ordering inside the same millisecond.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(ulid.Monotonic(rand.Reader, 0))
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it for deterministic output.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a "prefix_ULID" string
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSandboxID generates a sandbox instance ID
func NewSandboxID() SandboxID {
	return SandboxID(Default().WithPrefix(SandboxPrefix))
}

// NewConnectionID generates a bridge connection ID
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().WithPrefix(ConnectionPrefix))
}

// NewRequestID generates a request ID
func NewRequestID() RequestID {
	return RequestID(Default().WithPrefix(RequestPrefix))
}

func (id SandboxID) String() string    { return string(id) }
func (id ConnectionID) String() string { return string(id) }
func (id RequestID) String() string    { return string(id) }

// Valid reports whether a prefixed ID has the expected prefix and a
// well-formed ULID body.
func Valid(prefix, value string) bool {
	body, ok := strings.CutPrefix(value, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(body)
	return err == nil
}

// Timestamp extracts the creation time of a prefixed ID
func Timestamp(value string) (time.Time, error) {
	_, body, ok := strings.Cut(value, "_")
	if !ok {
		body = value
	}
	parsed, err := ulid.ParseStrict(body)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid id %q: %w", value, err)
	}
	return ulid.Time(parsed.Time()), nil
}

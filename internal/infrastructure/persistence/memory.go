package persistence

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Memory keeps the record in process memory
type Memory struct {
	mu    sync.RWMutex
	state *source.State
	saves int
}

// NewMemory creates an empty memory backend
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the last saved record, or nil when nothing was saved
func (m *Memory) Load(ctx context.Context) (*source.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	state := *m.state
	return &state, nil
}

// Save replaces the record
func (m *Memory) Save(ctx context.Context, state source.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &state
	m.saves++
	return nil
}

// Saves returns the number of successful writes
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

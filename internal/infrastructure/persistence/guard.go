package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

var ErrCircuitOpen = errors.New("persistence circuit breaker is open")

// BreakerState represents the circuit breaker state
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GuardSettings configures the breaker in front of a backend
type GuardSettings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold int
	// Cooldown is how long the circuit stays open before one trial request
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes
	OnStateChange func(from, to BreakerState)
}

// Guard short-circuits calls to a failing backend. After FailureThreshold
// consecutive failures every call fails fast with ErrCircuitOpen until the
// cooldown elapses; then a single trial call decides whether to close the
// circuit again.
type Guard struct {
	next     Backend
	settings GuardSettings
	now      func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewGuard wraps next with a circuit breaker
func NewGuard(next Backend, settings GuardSettings) *Guard {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 3
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Guard{
		next:     next,
		settings: settings,
		now:      time.Now,
	}
}

// Load reads through the breaker
func (g *Guard) Load(ctx context.Context) (*source.State, error) {
	if err := g.before(); err != nil {
		return nil, err
	}
	state, err := g.next.Load(ctx)
	g.after(err)
	return state, err
}

// Save writes through the breaker
func (g *Guard) Save(ctx context.Context, state source.State) error {
	if err := g.before(); err != nil {
		return err
	}
	err := g.next.Save(ctx, state)
	g.after(err)
	return err
}

// State returns the current breaker state
func (g *Guard) State() BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advance()
	return g.state
}

// Stats returns breaker statistics
func (g *Guard) Stats() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advance()
	return map[string]interface{}{
		"breaker":  g.state.String(),
		"failures": g.failures,
	}
}

// Close closes the wrapped backend
func (g *Guard) Close() error {
	return g.next.Close()
}

func (g *Guard) before() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.advance()
	switch g.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if g.probing {
			return ErrCircuitOpen
		}
		g.probing = true
	}
	return nil
}

func (g *Guard) after(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// a cancelled caller says nothing about the backend
	if errors.Is(err, context.Canceled) {
		g.probing = false
		return
	}

	if err == nil {
		g.failures = 0
		g.probing = false
		g.setState(StateClosed)
		return
	}

	g.failures++
	switch g.state {
	case StateHalfOpen:
		g.probing = false
		g.open()
	case StateClosed:
		if g.failures >= g.settings.FailureThreshold {
			g.open()
		}
	}
}

// advance moves an open circuit to half-open once the cooldown elapsed
func (g *Guard) advance() {
	if g.state == StateOpen && g.now().Sub(g.openedAt) >= g.settings.Cooldown {
		g.setState(StateHalfOpen)
	}
}

func (g *Guard) open() {
	g.openedAt = g.now()
	g.setState(StateOpen)
}

func (g *Guard) setState(state BreakerState) {
	if g.state == state {
		return
	}
	prev := g.state
	g.state = state
	if g.settings.OnStateChange != nil {
		g.settings.OnStateChange(prev, state)
	}
}

package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// Pool keeps warm, never-used runtimes ready. A runtime handed out by
// Acquire is discarded after use and replaced in the background, so
// documents never share a JavaScript realm.
type Pool struct {
	config    Config
	sandboxes chan *Runtime
	size      int
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup

	executed atomic.Int64
	failed   atomic.Int64
}

// NewPool creates a sandbox pool
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:    config,
		sandboxes: make(chan *Runtime, size),
		size:      size,
	}

	// Pre-create sandboxes
	for i := 0; i < size; i++ {
		sandbox, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.sandboxes <- sandbox
	}

	return pool, nil
}

// Config returns the configuration runtimes are built with
func (p *Pool) Config() Config {
	return p.config
}

// Acquire gets a fresh sandbox from the pool, waiting up to the configured
// timeout for one to be replenished
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	wait := p.config.Timeout
	if wait <= 0 {
		wait = 5 * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case sandbox, ok := <-p.sandboxes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return sandbox, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Release discards a used sandbox and starts building its replacement
func (p *Pool) Release(sandbox *Runtime) error {
	err := sandbox.Close()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return err
	}

	p.wg.Add(1)
	go p.replenish()
	return err
}

func (p *Pool) replenish() {
	defer p.wg.Done()

	sandbox, err := New(p.config)
	if err != nil {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		sandbox.Close()
		return
	}

	select {
	case p.sandboxes <- sandbox:
	default:
		sandbox.Close()
	}
}

// Execute runs document in a fresh sandbox and releases it afterwards
func (p *Pool) Execute(ctx context.Context, instance id.SandboxID, document string, post PostFunc) (*Result, error) {
	sandbox, err := p.Acquire(ctx)
	if err != nil {
		p.failed.Add(1)
		return nil, err
	}
	defer p.Release(sandbox)

	result, err := sandbox.Execute(ctx, instance, document, post)
	if err != nil {
		p.failed.Add(1)
		return nil, err
	}
	p.executed.Add(1)
	return result, nil
}

// Close closes pool and all sandboxes, waiting for pending replenishment
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	close(p.sandboxes)

	// Close all sandboxes
	for sandbox := range p.sandboxes {
		sandbox.Close()
	}

	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.sandboxes),
		"executed":  p.executed.Load(),
		"failed":    p.failed.Load(),
		"closed":    p.closed,
	}
}

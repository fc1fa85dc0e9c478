// Package bridge carries diagnostic messages from a sandbox to its host.
//
// The channel is one-directional and fire-and-forget: senders never wait for
// an acknowledgement and there is no way to reply. A single mailbox and a
// single dispatcher goroutine keep delivery in emission order. Messages posted
// while no host is listening are dropped.
package bridge

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// TypeConsole is the only message type the host acts on
const TypeConsole = "console"

var (
	ErrClosed           = errors.New("bridge is closed")
	ErrAlreadyListening = errors.New("bridge already has a listener")
	ErrNotListening     = errors.New("bridge has no listener")
)

// Drop reasons reported to the drop hook
const (
	DropNoListener  = "no_listener"
	DropUnknownType = "unknown_type"
)

// Message is one structured sandbox → host message
type Message struct {
	Type     string       `json:"type"`
	Message  string       `json:"message"`
	Instance id.SandboxID `json:"instance,omitempty"`

	ack chan struct{}
}

// Handler receives console messages in emission order
type Handler func(Message)

// Bridge is the host end of the sandbox message channel
type Bridge struct {
	mailbox chan Message
	done    chan struct{}
	once    sync.Once

	mu        sync.RWMutex
	listening bool
	stop      chan struct{}

	onDrop func(reason string)
	logger *zap.Logger
}

// Option configures a Bridge
type Option func(*Bridge)

// WithCapacity sets the mailbox size. Senders block once it is full, so a
// slow host applies back-pressure instead of losing messages.
func WithCapacity(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.mailbox = make(chan Message, n)
		}
	}
}

// WithDropHook is called for every dropped or ignored message
func WithDropHook(hook func(reason string)) Option {
	return func(b *Bridge) { b.onDrop = hook }
}

// WithLogger sets the bridge logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// New creates a bridge with no listener attached
func New(opts ...Option) *Bridge {
	b := &Bridge{
		mailbox: make(chan Message, 1024),
		done:    make(chan struct{}),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Post enqueues a message for the host. It reports whether the message was
// accepted; callers in the sandbox ignore the result.
func (b *Bridge) Post(msg Message) bool {
	b.mu.RLock()
	listening, stop := b.listening, b.stop
	b.mu.RUnlock()

	if !listening {
		b.drop(DropNoListener)
		return false
	}

	select {
	case b.mailbox <- msg:
		return true
	case <-stop:
	case <-b.done:
	}
	b.drop(DropNoListener)
	return false
}

// Listen attaches handler as the host listener and dispatches messages until
// ctx is cancelled or the bridge is closed. Only one listener may be attached
// at a time. Messages still queued when the listener detaches are discarded.
func (b *Bridge) Listen(ctx context.Context, handler Handler) error {
	b.mu.Lock()
	select {
	case <-b.done:
		b.mu.Unlock()
		return ErrClosed
	default:
	}
	if b.listening {
		b.mu.Unlock()
		return ErrAlreadyListening
	}
	b.listening = true
	b.stop = make(chan struct{})
	b.mu.Unlock()

	defer b.detach()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return nil
		case msg := <-b.mailbox:
			b.dispatch(handler, msg)
		}
	}
}

// Listening reports whether a host listener is attached
func (b *Bridge) Listening() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.listening
}

// Close detaches any listener and drops all future messages
func (b *Bridge) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}

// Flush blocks until every message posted before the call has been handed
// to the listener
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.RLock()
	listening, stop := b.listening, b.stop
	b.mu.RUnlock()
	if !listening {
		return ErrNotListening
	}

	ack := make(chan struct{})
	select {
	case b.mailbox <- Message{ack: ack}:
	case <-stop:
		return ErrNotListening
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-stop:
		return ErrNotListening
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) dispatch(handler Handler, msg Message) {
	if msg.ack != nil {
		close(msg.ack)
		return
	}
	if msg.Type != TypeConsole {
		b.logger.Debug("Ignoring bridge message", zap.String("type", msg.Type))
		b.drop(DropUnknownType)
		return
	}
	handler(msg)
}

func (b *Bridge) detach() {
	b.mu.Lock()
	b.listening = false
	close(b.stop)
	b.mu.Unlock()

	for {
		select {
		case msg := <-b.mailbox:
			if msg.ack == nil {
				b.drop(DropNoListener)
			}
		default:
			return
		}
	}
}

func (b *Bridge) drop(reason string) {
	if b.onDrop != nil {
		b.onDrop(reason)
	}
}

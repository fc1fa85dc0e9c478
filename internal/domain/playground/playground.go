package playground

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/bridge"
	"github.com/GriffinCanCode/playground/internal/domain/console"
	"github.com/GriffinCanCode/playground/internal/domain/export"
	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/source"
	"github.com/GriffinCanCode/playground/internal/providers/browser/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/id"
)

var (
	ErrInstanceNotFound = errors.New("sandbox instance not found")
	ErrStopped          = errors.New("playground is stopped")
)

// Executor runs a composed document in a fresh sandbox
type Executor interface {
	Execute(ctx context.Context, instance id.SandboxID, document string, post sandbox.PostFunc) (*sandbox.Result, error)
}

// Playground wires the data flow between the fragment store, the composer,
// the sandbox and the console. All host-side state changes happen under one
// mutex.
type Playground struct {
	store    *source.Store
	console  *console.Buffer
	bridge   *bridge.Bridge
	executor Executor
	exporter *export.Generator
	metrics  Metrics
	logger   *zap.Logger

	mu       sync.Mutex
	current  *Instance
	override *string
	subs     map[int]func(Event)
	nextSub  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Playground
type Option func(*Playground)

// WithExecutor sets the headless sandbox. Without one, documents are only
// rendered by connected browsers.
func WithExecutor(executor Executor) Option {
	return func(p *Playground) { p.executor = executor }
}

// WithConsole replaces the default console buffer
func WithConsole(buffer *console.Buffer) Option {
	return func(p *Playground) { p.console = buffer }
}

// WithBridge replaces the default message bridge
func WithBridge(b *bridge.Bridge) Option {
	return func(p *Playground) { p.bridge = b }
}

// WithExporter replaces the default export generator
func WithExporter(g *export.Generator) Option {
	return func(p *Playground) { p.exporter = g }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(p *Playground) { p.metrics = m }
}

// WithLogger sets the playground logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Playground) { p.logger = logger }
}

// New creates a playground over store. Call Start before use.
func New(st *source.Store, opts ...Option) *Playground {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Playground{
		store:   st,
		metrics: nopMetrics{},
		logger:  zap.NewNop(),
		subs:    make(map[int]func(Event)),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.console == nil {
		p.console = console.NewBuffer(console.DefaultMaxLines)
	}
	if p.bridge == nil {
		p.bridge = bridge.New(bridge.WithLogger(p.logger))
	}
	if p.exporter == nil {
		p.exporter = export.NewGenerator()
	}

	st.Subscribe(p.onChange)
	return p
}

// Start attaches the console listener to the bridge and performs the
// initial run of the stored script
func (p *Playground) Start() error {
	select {
	case <-p.ctx.Done():
		return ErrStopped
	default:
	}

	exited := make(chan error, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err := p.bridge.Listen(p.ctx, p.receive)
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("Bridge listener stopped", zap.Error(err))
		}
		exited <- err
	}()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !p.bridge.Listening() {
		select {
		case err := <-exited:
			return fmt.Errorf("failed to attach console listener: %w", err)
		case <-ticker.C:
		}
	}

	p.Run()
	return nil
}

// Stop tears down the current instance and waits for background work
func (p *Playground) Stop() {
	p.mu.Lock()
	if p.current != nil {
		p.current.cancel()
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// State returns the current fragments
func (p *Playground) State() source.State {
	return p.store.Get()
}

// Edit replaces one fragment. Markup and style edits recompose the live
// document; script edits only update the store.
func (p *Playground) Edit(kind source.Kind, text string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", source.ErrUnknownKind, kind)
	}
	p.store.Set(kind, text)
	return nil
}

// Reset restores the seed fragments
func (p *Playground) Reset() {
	p.store.Reset()
}

// Run is the explicit run trigger: it clears the console, captures the
// stored script as the override and replaces the document with one that
// executes it. It returns without waiting for the sandbox.
func (p *Playground) Run() *Instance {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.console.Clear()
	p.broadcast(Event{Type: EventCleared})

	state := p.store.Get()
	script := state.Script
	p.override = &script

	p.metrics.Run()
	return p.replace(preview.VariantRun, preview.ComposeWithScript(state, script))
}

// Override returns the script captured by the last run, if any
func (p *Playground) Override() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.override == nil {
		return "", false
	}
	return *p.override, true
}

// Current returns the instance owning the current document
func (p *Playground) Current() *Instance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Document returns the current composed document
func (p *Playground) Document() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return preview.ComposeLive(p.store.Get())
	}
	return p.current.Document
}

// DocumentFor returns the document of instance if it is still current
func (p *Playground) DocumentFor(instance id.SandboxID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.ID != instance {
		return "", fmt.Errorf("%w: %s", ErrInstanceNotFound, instance)
	}
	return p.current.Document, nil
}

// LiveDocumentFor returns the script-free composition of the current
// fragments if instance is still current. Browser hosts display it when the
// headless sandbox owns execution.
func (p *Playground) LiveDocumentFor(instance id.SandboxID) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.ID != instance {
		return "", fmt.Errorf("%w: %s", ErrInstanceNotFound, instance)
	}
	return preview.ComposeLive(p.store.Get()), nil
}

// Headless reports whether documents run in the in-process sandbox. Each
// document then has exactly one executor and browser hosts only display it.
func (p *Playground) Headless() bool {
	return p.executor != nil
}

// Standalone returns the open-in-new-context document. Its diagnostics are
// not captured.
func (p *Playground) Standalone() string {
	p.metrics.Composition(string(preview.VariantStandalone))
	return preview.Standalone(p.store.Get())
}

// Export returns the downloadable artifact for the current fragments
func (p *Playground) Export() export.Artifact {
	return p.exporter.Generate(p.store.Get())
}

// Console returns the console buffer
func (p *Playground) Console() *console.Buffer {
	return p.console
}

// ClearConsole empties the console
func (p *Playground) ClearConsole() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console.Clear()
	p.broadcast(Event{Type: EventCleared})
}

// Post delivers a message from a browser-hosted sandbox
func (p *Playground) Post(msg bridge.Message) bool {
	return p.bridge.Post(msg)
}

// Subscribe registers fn for console and document events. fn runs with the
// playground locked and must not call back into it. The returned function
// removes the subscription.
func (p *Playground) Subscribe(fn func(Event)) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := p.nextSub
	p.nextSub++
	p.subs[key] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, key)
	}
}

// onChange is the store observer
func (p *Playground) onChange(state source.State, changed []source.Kind) {
	if !slices.Contains(changed, source.Markup) && !slices.Contains(changed, source.Style) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.replace(preview.VariantLive, preview.ComposeLive(state))
}

// replace tears down the current instance and installs a new one for
// document. Callers hold p.mu.
func (p *Playground) replace(variant preview.Variant, document string) *Instance {
	if p.current != nil {
		p.current.cancel()
	}

	ctx, cancel := context.WithCancel(p.ctx)
	inst := &Instance{
		ID:       id.NewSandboxID(),
		Variant:  variant,
		Document: document,
		Created:  time.Now(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	p.current = inst
	p.metrics.Composition(string(variant))
	p.broadcast(Event{Type: EventDocument, Instance: inst.ID})

	if p.executor == nil {
		close(inst.done)
		return inst
	}

	p.wg.Add(1)
	go p.execute(ctx, inst)
	return inst
}

func (p *Playground) execute(ctx context.Context, inst *Instance) {
	defer p.wg.Done()
	defer close(inst.done)
	defer inst.cancel()

	result, err := p.executor.Execute(ctx, inst.ID, inst.Document, func(msg bridge.Message) {
		p.bridge.Post(msg)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.logger.Warn("Sandbox execution failed",
				zap.String("instance", inst.ID.String()),
				zap.Error(err))
		}
		return
	}

	inst.setResult(result)
	p.metrics.Sandbox(result.Duration, result.Interrupted)
	p.logger.Debug("Sandbox finished",
		zap.String("instance", inst.ID.String()),
		zap.String("variant", string(inst.Variant)),
		zap.Int("scripts", result.Scripts),
		zap.Int("posted", result.Posted),
		zap.Int("uncaught", result.Uncaught),
		zap.Bool("interrupted", result.Interrupted),
		zap.Duration("duration", result.Duration))

	// everything the sandbox posted reaches the console before Done
	if err := p.bridge.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Debug("Bridge flush failed", zap.Error(err))
	}
}

// receive is the bridge listener. Messages from instances other than the
// current one are stale and dropped.
func (p *Playground) receive(msg bridge.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || msg.Instance != p.current.ID {
		p.metrics.Diagnostic(false)
		return
	}

	p.console.Append(console.Event{Message: msg.Message})
	p.metrics.Diagnostic(true)
	p.broadcast(Event{Type: EventConsole, Instance: msg.Instance, Line: msg.Message})
}

// broadcast notifies subscribers. Callers hold p.mu.
func (p *Playground) broadcast(ev Event) {
	for _, fn := range p.subs {
		fn(ev)
	}
}

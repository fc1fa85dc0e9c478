package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/playground"
	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Editor is the editor boundary the watcher feeds
type Editor interface {
	State() source.State
	Edit(kind source.Kind, text string) error
	Run() *playground.Instance
}

// WatcherStats tracks watcher activity
type WatcherStats struct {
	Events   int
	Synced   int
	Runs     int
	Errors   int
	LastSync time.Time
	LastKind source.Kind
}

// Watcher syncs fragment files into an Editor. Saving script.js also
// triggers a run, like pressing the run button.
type Watcher struct {
	workspace *Workspace
	editor    Editor
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[source.Kind]time.Time
	stats   WatcherStats
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDebounce sets how long a file must be quiet before it is synced
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the watcher logger
func WithLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher creates a watcher for ws feeding editor
func NewWatcher(ws *Workspace, editor Editor, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		workspace: ws,
		editor:    editor,
		watcher:   fw,
		debounce:  200 * time.Millisecond,
		logger:    zap.NewNop(),
		pending:   make(map[source.Kind]time.Time),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the workspace directory. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.workspace.Dir()); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.workspace.Dir(), err)
	}
	w.logger.Info("Watching workspace", zap.String("dir", w.workspace.Dir()))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("Failed to close file watcher", zap.Error(err))
	}
}

// Stats returns a copy of the watcher statistics
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	kind, ok := w.workspace.KindOf(event.Name)
	if !ok {
		return
	}

	w.mu.Lock()
	w.stats.Events++
	w.pending[kind] = time.Now()
	w.mu.Unlock()
}

// flush syncs files that settled past the debounce window
func (w *Watcher) flush() {
	w.mu.Lock()
	now := time.Now()
	var settled []source.Kind
	for _, kind := range source.Kinds() {
		at, ok := w.pending[kind]
		if ok && now.Sub(at) >= w.debounce {
			settled = append(settled, kind)
			delete(w.pending, kind)
		}
	}
	w.mu.Unlock()

	for _, kind := range settled {
		w.sync(kind)
	}
}

func (w *Watcher) sync(kind source.Kind) {
	text, ok, err := w.workspace.Read(kind)
	if err != nil {
		w.logger.Warn("Failed to read fragment file", zap.String("kind", string(kind)), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}
	if !ok {
		return
	}

	changed := w.editor.State().Get(kind) != text
	if changed {
		if err := w.editor.Edit(kind, text); err != nil {
			w.logger.Warn("Failed to apply fragment file", zap.String("kind", string(kind)), zap.Error(err))
			return
		}
	}

	run := kind == source.Script
	if run {
		w.editor.Run()
	}

	w.mu.Lock()
	if changed {
		w.stats.Synced++
		w.stats.LastSync = time.Now()
		w.stats.LastKind = kind
	}
	if run {
		w.stats.Runs++
	}
	w.mu.Unlock()

	w.logger.Debug("Synced fragment file",
		zap.String("kind", string(kind)),
		zap.Bool("changed", changed),
		zap.Bool("run", run))
}

package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StorageKey is the fixed identifier under which the state is persisted
const StorageKey = "code-storage"

// Persister is the external persistence boundary. Load returns (nil, nil)
// when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state State) error
}

// Observer is notified after every mutation with the new state and the
// fragment kinds that were replaced.
type Observer func(state State, changed []Kind)

// Store is the Source State Store
type Store struct {
	mu        sync.RWMutex
	state     State
	seed      State
	observers []Observer

	// one writer goroutine at a time saves the newest state; edits made while
	// a save is in flight only mark the store dirty
	saveMu      sync.Mutex
	dirty       bool
	writing     bool
	writes      sync.WaitGroup
	persister   Persister
	saveTimeout time.Duration
	onSaveError func(op string, err error)

	logger *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithSeed replaces the built-in seed
func WithSeed(seed State) Option {
	return func(s *Store) { s.seed = seed }
}

// WithLogger sets the logger used for persistence warnings
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithSaveTimeout bounds each persistence call
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) { s.saveTimeout = d }
}

// WithErrorHook is called for every failed load or save (op is "load" or "save")
func WithErrorHook(hook func(op string, err error)) Option {
	return func(s *Store) { s.onSaveError = hook }
}

// NewStore creates a store and restores any persisted state. A missing or
// unreadable record falls back to the seed.
func NewStore(ctx context.Context, persister Persister, opts ...Option) *Store {
	s := &Store{
		seed:        DefaultSeed(),
		persister:   persister,
		saveTimeout: 5 * time.Second,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = s.seed
	if persister == nil {
		return s
	}

	loadCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	saved, err := persister.Load(loadCtx)
	switch {
	case err != nil:
		s.logger.Warn("Failed to load saved fragments, using seed", zap.Error(err))
		s.reportError("load", err)
	case saved == nil:
		s.logger.Debug("No saved fragments, using seed")
	default:
		s.state = *saved
		s.logger.Debug("Restored saved fragments",
			zap.Int("html_bytes", len(saved.Markup)),
			zap.Int("css_bytes", len(saved.Style)),
			zap.Int("js_bytes", len(saved.Script)),
		)
	}
	return s
}

// Get returns a snapshot of all three fragments
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Seed returns the state Reset restores
func (s *Store) Seed() State {
	return s.seed
}

// Set replaces exactly one fragment. Observers are notified before the
// result is persisted in the background.
func (s *Store) Set(kind Kind, text string) {
	if !kind.Valid() {
		s.logger.Warn("Ignoring update for unknown fragment kind", zap.String("kind", string(kind)))
		return
	}

	s.mu.Lock()
	s.state = s.state.With(kind, text)
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot, []Kind{kind})
	s.persist()
}

// Reset restores every fragment to the seed and persists the result in the
// background
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = s.seed
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot, Kinds())
	s.persist()
}

// Subscribe registers an observer for future mutations
func (s *Store) Subscribe(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Flush waits for pending saves. Call it after the last mutation, before
// the persister is closed.
func (s *Store) Flush() {
	s.writes.Wait()
}

func (s *Store) persist() {
	if s.persister == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.dirty = true
	if s.writing {
		return
	}
	s.writing = true
	s.writes.Add(1)
	go s.writeLoop()
}

// writeLoop saves until no mutation happened during the last save
func (s *Store) writeLoop() {
	defer s.writes.Done()
	for {
		s.saveMu.Lock()
		if !s.dirty {
			s.writing = false
			s.saveMu.Unlock()
			return
		}
		s.dirty = false
		s.saveMu.Unlock()

		s.save(s.Get())
	}
}

func (s *Store) save(state State) {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	if err := s.persister.Save(ctx, state); err != nil {
		s.logger.Warn("Failed to persist fragments", zap.Error(err))
		s.reportError("save", err)
	}
}

func (s *Store) notify(state State, changed []Kind) {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()

	for _, observer := range observers {
		observer(state, changed)
	}
}

func (s *Store) reportError(op string, err error) {
	if s.onSaveError != nil {
		s.onSaveError(op, err)
	}
}

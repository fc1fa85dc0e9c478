package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Workspace is a directory holding one file per fragment: index.html,
// style.css and script.js
type Workspace struct {
	dir string
}

// New returns the workspace rooted at dir
func New(dir string) *Workspace {
	return &Workspace{dir: dir}
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the file path of one fragment
func (w *Workspace) Path(kind source.Kind) string {
	return filepath.Join(w.dir, kind.FileName())
}

// KindOf maps a path inside the workspace to its fragment kind
func (w *Workspace) KindOf(path string) (source.Kind, bool) {
	if filepath.Clean(filepath.Dir(path)) != filepath.Clean(w.dir) {
		return "", false
	}
	name := filepath.Base(path)
	for _, kind := range source.Kinds() {
		if kind.FileName() == name {
			return kind, true
		}
	}
	return "", false
}

// Read returns the text of one fragment file as UTF-8. A missing file
// reports ok == false.
func (w *Workspace) Read(kind source.Kind) (text string, ok bool, err error) {
	data, err := os.ReadFile(w.Path(kind))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", kind.FileName(), err)
	}
	text, err = decode(data)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", kind.FileName(), err)
	}
	return text, true, nil
}

// Load overlays the fragment files present in the workspace onto base
func (w *Workspace) Load(base source.State) (source.State, error) {
	state := base
	for _, kind := range source.Kinds() {
		text, ok, err := w.Read(kind)
		if err != nil {
			return base, err
		}
		if ok {
			state = state.With(kind, text)
		}
	}
	return state, nil
}

// Write stores every fragment of state as a file, creating the directory
// if needed
func (w *Workspace) Write(state source.State) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	for _, kind := range source.Kinds() {
		if err := os.WriteFile(w.Path(kind), []byte(state.Get(kind)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", kind.FileName(), err)
		}
	}
	return nil
}

// WriteMissing writes only the fragment files that do not exist yet
func (w *Workspace) WriteMissing(state source.State) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	for _, kind := range source.Kinds() {
		path := w.Path(kind)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(state.Get(kind)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", kind.FileName(), err)
		}
	}
	return nil
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// File keeps the record in a single file
type File struct {
	path  string
	codec Codec
}

// NewFile creates a file backend; the codec follows the file extension
func NewFile(path string) (*File, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, codec: codec}, nil
}

// Path returns the record file path
func (f *File) Path() string {
	return f.path
}

// Load reads the record. A missing file is an absent record.
func (f *File) Load(ctx context.Context) (*source.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	var state source.State
	if err := f.codec.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", f.codec.Name(), err)
	}
	return &state, nil
}

// Save writes the record atomically: a temp file in the same directory is
// renamed over the target.
func (f *File) Save(ctx context.Context, state source.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := f.codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", f.codec.Name(), err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

// Close is a no-op
func (f *File) Close() error {
	return nil
}

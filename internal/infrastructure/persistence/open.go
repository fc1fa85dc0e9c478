package persistence

import (
	"context"
	"fmt"
	"io"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Backend is a persister that owns resources
type Backend interface {
	source.Persister
	io.Closer
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend
type Options struct {
	Backend       string
	Path          string // file or sqlite path
	Key           string // record key for sqlite and redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the configured backend
func Open(ctx context.Context, opts Options) (Backend, error) {
	key := opts.Key
	if key == "" {
		key = source.StorageKey
	}

	switch opts.Backend {
	case BackendFile, "":
		return NewFile(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.Path, key)
	case BackendRedis:
		r := NewRedis(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, key, WithPrefix(opts.RedisPrefix))
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", opts.RedisAddr, err)
		}
		return r, nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	backend "github.com/redis/go-redis/v9"

	"github.com/GriffinCanCode/playground/internal/domain/source"
)

// Redis keeps the record as a JSON string value
type Redis struct {
	client *backend.Client
	key    string
}

// RedisOption configures a Redis backend
type RedisOption func(*Redis)

// WithPrefix namespaces the record key
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.key = prefix + r.key }
}

// NewRedis connects to the server at address
func NewRedis(address, password string, db int, key string, opts ...RedisOption) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, key, opts...)
}

// NewRedisFromClient creates a backend from an existing client
func NewRedisFromClient(client *backend.Client, key string, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: key}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the redis key holding the record
func (r *Redis) Key() string {
	return r.key
}

// Load reads the record
func (r *Redis) Load(ctx context.Context) (*source.State, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var state source.State
	if err := sonic.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fragments: %w", err)
	}
	return &state, nil
}

// Save writes the record without expiry
func (r *Redis) Save(ctx context.Context, state source.State) error {
	data, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal fragments: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the redis client
func (r *Redis) Close() error {
	return r.client.Close()
}

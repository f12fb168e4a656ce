package cache

import (
	"context"
	"time"
)

// Cache stores serialized report payloads under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Noop discards writes and never hits.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (Noop) Delete(_ context.Context, _ string) error {
	return nil
}

func (Noop) Ping(_ context.Context) error {
	return nil
}

func (Noop) Close() error {
	return nil
}

// Package cache is the read-through cache in front of the public
// catalog and review listings. Values are opaque serialized payloads;
// callers own the encoding.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the cached payload and whether the key was present;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoopCache misses every read and discards every write, for
// deployments without Redis.
type NoopCache struct{}

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (n *NoopCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (n *NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}

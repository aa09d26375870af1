package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache stores serialized API responses. MemoryCache serves single instance
// deployments, RedisCache is shared between replicas.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

type CacheError string

func (e CacheError) Error() string { return string(e) }

const ErrCacheMiss CacheError = "cache miss"

// GetOrSetJSON decodes the cached value for key into dst, or calls fn, stores
// its JSON encoding and decodes it into dst. Cache failures fall through to fn.
func GetOrSetJSON[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if c != nil {
		if data, err := c.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := fn()
	if err != nil {
		return v, err
	}

	if c != nil {
		if data, err := json.Marshal(v); err == nil {
			_ = c.Set(ctx, key, data, ttl)
		}
	}
	return v, nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/vigility/dashboard/internal/domain/providers"
)

// ErrRejected is returned when the in-memory store declines to admit a value
var ErrRejected = errors.New("value rejected by memory store")

// MemoryAdapter implements CacheProvider with a process-local Ristretto
// cache. Nothing survives a restart.
type MemoryAdapter struct {
	cache *ristretto.Cache[string, []byte]
}

// NewMemoryAdapter creates an in-memory store bounded to maxSizeMB
func NewMemoryAdapter(maxSizeMB int) (*MemoryAdapter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 16
	}
	maxCost := int64(maxSizeMB) * 1024 * 1024

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10_000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory store: %w", err)
	}
	return &MemoryAdapter{cache: c}, nil
}

// Get retrieves a value
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := a.cache.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return value, nil
}

// Set stores a value and waits until it is visible to readers
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	ttl := time.Duration(expirationSeconds) * time.Second
	if !a.cache.SetWithTTL(key, value, int64(len(value)), ttl) {
		return fmt.Errorf("memory set %s: %w", key, ErrRejected)
	}
	a.cache.Wait()
	return nil
}

// Delete removes a value
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.cache.Del(key)
	return nil
}

// Exists checks if a key is present
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := a.cache.Get(key)
	return ok, nil
}

// Close releases the cache's background goroutines
func (a *MemoryAdapter) Close() {
	a.cache.Close()
}

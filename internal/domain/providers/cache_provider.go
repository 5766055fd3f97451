package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned by Get when the key is absent or has expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for key/value storage with expiry
type CacheProvider interface {
	// Get retrieves a value. Missing or expired keys return ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with expiration. Zero means no expiry.
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)
}

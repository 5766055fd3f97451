package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vigility/dashboard/internal/domain/providers"
)

// BadgerAdapter implements CacheProvider on a local Badger database. It is
// the default store so filters survive process restarts without a server.
type BadgerAdapter struct {
	db *badger.DB
}

// NewBadgerAdapter creates a Badger-backed store over an open database
func NewBadgerAdapter(db *badger.DB) providers.CacheProvider {
	return &BadgerAdapter{db: db}
}

// Get retrieves a value. Badger hides expired entries, so they read as misses.
func (a *BadgerAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, providers.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value with an optional TTL
func (a *BadgerAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if expirationSeconds > 0 {
			entry = entry.WithTTL(time.Duration(expirationSeconds) * time.Second)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value
func (a *BadgerAdapter) Delete(ctx context.Context, key string) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("badger delete %s: %w", key, err)
	}
	return nil
}

// Exists checks if a live key is present
func (a *BadgerAdapter) Exists(ctx context.Context, key string) (bool, error) {
	err := a.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger exists %s: %w", key, err)
	}
	return true, nil
}

// Package store provides the key-value persistence layer for ledger
// snapshots. Backends register themselves by name; the memory backend is
// always available, pebble and leveldb persist to disk.
package store

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
)

// Store is a flat key-value store.
type Store interface {
	// Name returns the backend name.
	Name() string

	// Get retrieves the value for key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Put stores a value under key, replacing any previous value.
	Put(key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// ForEach calls fn for every key-value pair until fn returns false.
	ForEach(fn func(key, value []byte) bool) error

	// Sync flushes pending writes to stable storage.
	Sync() error

	// Close releases backend resources.
	Close() error
}

// Config carries backend options.
type Config struct {
	// Path is the on-disk location for persistent backends.
	Path string

	// CacheSize is the number of values the read cache holds. Zero
	// disables the cache.
	CacheSize int

	// Compress enables lz4 compression of stored values.
	Compress bool
}

// Factory creates a backend from its config.
type Factory func(cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a backend factory under a name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Open creates a store using the named backend, wrapped with the read
// cache and compression the config asks for.
func Open(name string, cfg Config) (Store, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown store backend: %s", name)
	}

	s, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Compress {
		s = newCompressedStore(s)
	}
	if cfg.CacheSize > 0 {
		s, err = newCachedStore(s, cfg.CacheSize)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Available returns the registered backend names.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

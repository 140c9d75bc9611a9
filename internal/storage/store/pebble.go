package store

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

func init() {
	Register("pebble", func(cfg Config) (Store, error) {
		return OpenPebble(cfg.Path)
	})
}

// Pebble is a Store backed by a pebble LSM database.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a pebble store at path.
func OpenPebble(path string) (*Pebble, error) {
	if path == "" {
		return nil, fmt.Errorf("pebble backend requires a path")
	}

	opts := &pebble.Options{
		Levels: []pebble.LevelOptions{{
			FilterPolicy: bloom.FilterPolicy(10),
		}},
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &Pebble{db: db}, nil
}

// Name returns the backend name.
func (p *Pebble) Name() string { return "pebble" }

// Get retrieves the value for key.
func (p *Pebble) Get(key []byte) ([]byte, error) {
	value, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(value))
	copy(out, value)
	closer.Close()
	return out, nil
}

// Put stores a value under key.
func (p *Pebble) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.NoSync)
}

// Delete removes key.
func (p *Pebble) Delete(key []byte) error {
	return p.db.Delete(key, pebble.NoSync)
}

// ForEach iterates over all pairs.
func (p *Pebble) ForEach(fn func(key, value []byte) bool) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Sync flushes the WAL to disk.
func (p *Pebble) Sync() error {
	return p.db.Flush()
}

// Close closes the database.
func (p *Pebble) Close() error {
	return p.db.Close()
}

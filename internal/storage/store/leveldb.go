package store

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

func init() {
	Register("leveldb", func(cfg Config) (Store, error) {
		return OpenLevelDB(cfg.Path)
	})
}

// LevelDB is a Store backed by goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a leveldb store at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb backend requires a path")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

// Name returns the backend name.
func (l *LevelDB) Name() string { return "leveldb" }

// Get retrieves the value for key.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores a value under key.
func (l *LevelDB) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

// Delete removes key.
func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

// ForEach iterates over all pairs.
func (l *LevelDB) ForEach(fn func(key, value []byte) bool) error {
	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Sync is handled per-write by leveldb's WAL.
func (l *LevelDB) Sync() error { return nil }

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

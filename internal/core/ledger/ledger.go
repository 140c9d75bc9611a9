// Package ledger holds the committed marketplace state: every entry that
// has survived a successful transaction apply. It is the base view the
// transaction engine's state table commits into.
package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/keylet"
	"github.com/cgc-labs/marketd/internal/crypto"
)

type record struct {
	typ  entry.Type
	data []byte
}

// Ledger is the committed state map. All methods are safe for concurrent
// use; the engine serializes writes, reads come from RPC handlers.
type Ledger struct {
	mu      sync.RWMutex
	entries map[[32]byte]record
	seq     uint64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[[32]byte]record)}
}

// Read returns the entry data at k, or nil if absent.
func (l *Ledger) Read(k keylet.Keylet) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.entries[k.Key]
	if !ok {
		return nil, nil
	}
	return rec.data, nil
}

// Exists reports whether an entry exists at k.
func (l *Ledger) Exists(k keylet.Keylet) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[k.Key]
	return ok, nil
}

// Insert adds a new entry at k.
func (l *Ledger) Insert(k keylet.Keylet, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[k.Key]; ok {
		return fmt.Errorf("entry already exists")
	}
	l.entries[k.Key] = record{typ: k.Type, data: data}
	return nil
}

// Update replaces the entry at k.
func (l *Ledger) Update(k keylet.Keylet, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.entries[k.Key]
	if !ok {
		return fmt.Errorf("entry not found")
	}
	rec.data = data
	if k.Type != entry.TypeInvalid {
		rec.typ = k.Type
	}
	l.entries[k.Key] = rec
	return nil
}

// Erase removes the entry at k.
func (l *Ledger) Erase(k keylet.Keylet) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[k.Key]; !ok {
		return fmt.Errorf("entry not found")
	}
	delete(l.entries, k.Key)
	return nil
}

// ForEach calls fn for every entry until fn returns false.
func (l *Ledger) ForEach(fn func(key [32]byte, data []byte) bool) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for key, rec := range l.entries {
		if !fn(key, rec.data) {
			return nil
		}
	}
	return nil
}

// EntryType returns the type recorded for the entry at key.
func (l *Ledger) EntryType(key [32]byte) entry.Type {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[key].typ
}

// Advance bumps the ledger sequence after a committed transaction.
func (l *Ledger) Advance() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	return l.seq
}

// Seq returns the current ledger sequence.
func (l *Ledger) Seq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// EntryCount returns the number of committed entries.
func (l *Ledger) EntryCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// StateHash computes a digest over the full committed state, entries
// visited in key order so the hash is deterministic across nodes.
func (l *Ledger) StateHash() [32]byte {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([][32]byte, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	chunks := make([][]byte, 0, 2*len(keys))
	for _, k := range keys {
		rec := l.entries[k]
		chunks = append(chunks, k[:], rec.data)
	}
	return crypto.Sha512Half(chunks...)
}

// Snapshot returns a copy of every entry, for persistence.
func (l *Ledger) Snapshot() map[[32]byte][]byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[[32]byte][]byte, len(l.entries))
	for k, rec := range l.entries {
		buf := make([]byte, 1+len(rec.data))
		buf[0] = byte(rec.typ)
		copy(buf[1:], rec.data)
		out[k] = buf
	}
	return out
}

// Restore replaces the ledger contents from a persisted snapshot
// produced by Snapshot.
func (l *Ledger) Restore(snapshot map[[32]byte][]byte, seq uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make(map[[32]byte]record, len(snapshot))
	for k, buf := range snapshot {
		if len(buf) < 1 {
			return fmt.Errorf("corrupt snapshot entry %x", k)
		}
		data := make([]byte, len(buf)-1)
		copy(data, buf[1:])
		entries[k] = record{typ: entry.Type(buf[0]), data: data}
	}
	l.entries = entries
	l.seq = seq
	return nil
}

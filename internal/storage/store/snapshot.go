package store

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Snapshot key layout: state entries live under an 's' prefix keyed by
// their 32-byte ledger key; the ledger sequence lives under "meta/seq".
var (
	statePrefix = []byte{'s'}
	seqKey      = []byte("meta/seq")
)

// SaveSnapshot persists a full ledger snapshot, replacing any previous
// one. Entries removed since the last snapshot are deleted.
func SaveSnapshot(s Store, entries map[[32]byte][]byte, seq uint64) error {
	// Collect stale keys first; deleting while iterating is backend
	// dependent.
	var stale [][]byte
	err := s.ForEach(func(key, _ []byte) bool {
		if len(key) == 33 && key[0] == statePrefix[0] {
			var k [32]byte
			copy(k[:], key[1:])
			if _, ok := entries[k]; !ok {
				keyCopy := make([]byte, len(key))
				copy(keyCopy, key)
				stale = append(stale, keyCopy)
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	for _, key := range stale {
		if err := s.Delete(key); err != nil {
			return err
		}
	}

	for k, data := range entries {
		key := make([]byte, 33)
		key[0] = statePrefix[0]
		copy(key[1:], k[:])
		if err := s.Put(key, data); err != nil {
			return err
		}
	}

	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	if err := s.Put(seqKey, seqBuf[:]); err != nil {
		return err
	}
	return s.Sync()
}

// LoadSnapshot reads the persisted ledger snapshot. A store with no
// snapshot yields an empty map and sequence zero.
func LoadSnapshot(s Store) (map[[32]byte][]byte, uint64, error) {
	entries := make(map[[32]byte][]byte)
	err := s.ForEach(func(key, value []byte) bool {
		if len(key) == 33 && key[0] == statePrefix[0] {
			var k [32]byte
			copy(k[:], key[1:])
			data := make([]byte, len(value))
			copy(data, value)
			entries[k] = data
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}

	seqBuf, err := s.Get(seqKey)
	if errors.Is(err, ErrNotFound) {
		if len(entries) > 0 {
			return nil, 0, fmt.Errorf("snapshot has entries but no sequence")
		}
		return entries, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	if len(seqBuf) != 8 {
		return nil, 0, fmt.Errorf("corrupt snapshot sequence")
	}
	return entries, binary.BigEndian.Uint64(seqBuf), nil
}

package store

import (
	"sync"
	"sync/atomic"
)

func init() {
	Register("memory", func(cfg Config) (Store, error) {
		return NewMemory(), nil
	})
}

// Memory is an in-memory Store used in standalone mode and tests.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed int32
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Name returns the backend name.
func (m *Memory) Name() string { return "memory" }

// Get retrieves the value for key.
func (m *Memory) Get(key []byte) ([]byte, error) {
	if atomic.LoadInt32(&m.closed) != 0 {
		return nil, ErrClosed
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Put stores a value under key.
func (m *Memory) Put(key, value []byte) error {
	if atomic.LoadInt32(&m.closed) != 0 {
		return ErrClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.data[string(key)] = buf
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key []byte) error {
	if atomic.LoadInt32(&m.closed) != 0 {
		return ErrClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// ForEach iterates over all pairs.
func (m *Memory) ForEach(fn func(key, value []byte) bool) error {
	if atomic.LoadInt32(&m.closed) != 0 {
		return ErrClosed
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.data {
		if !fn([]byte(k), v) {
			return nil
		}
	}
	return nil
}

// Sync is a no-op for the memory backend.
func (m *Memory) Sync() error { return nil }

// Close clears the store.
func (m *Memory) Close() error {
	if !atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

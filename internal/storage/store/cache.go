package store

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedStore wraps a backend with an LRU read cache. Writes go through
// to the backend and update the cache; deletes evict.
type cachedStore struct {
	inner Store
	cache *lru.Cache[string, []byte]
}

func newCachedStore(inner Store, size int) (Store, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &cachedStore{inner: inner, cache: cache}, nil
}

func (c *cachedStore) Name() string { return c.inner.Name() }

func (c *cachedStore) Get(key []byte) ([]byte, error) {
	if value, ok := c.cache.Get(string(key)); ok {
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	}
	value, err := c.inner.Get(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(string(key), value)
	return value, nil
}

func (c *cachedStore) Put(key, value []byte) error {
	if err := c.inner.Put(key, value); err != nil {
		return err
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	c.cache.Add(string(key), buf)
	return nil
}

func (c *cachedStore) Delete(key []byte) error {
	if err := c.inner.Delete(key); err != nil {
		return err
	}
	c.cache.Remove(string(key))
	return nil
}

func (c *cachedStore) ForEach(fn func(key, value []byte) bool) error {
	return c.inner.ForEach(fn)
}

func (c *cachedStore) Sync() error { return c.inner.Sync() }

func (c *cachedStore) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}

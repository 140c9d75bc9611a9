package store

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// compressedStore lz4-compresses values before they reach the backend.
// Each stored value is prefixed with the uncompressed length; values that
// do not shrink are stored raw with a zero prefix.
type compressedStore struct {
	inner Store
}

func newCompressedStore(inner Store) Store {
	return &compressedStore{inner: inner}
}

func (c *compressedStore) Name() string { return c.inner.Name() }

func (c *compressedStore) Get(key []byte) ([]byte, error) {
	stored, err := c.inner.Get(key)
	if err != nil {
		return nil, err
	}
	return decompressValue(stored)
}

func (c *compressedStore) Put(key, value []byte) error {
	return c.inner.Put(key, compressValue(value))
}

func (c *compressedStore) Delete(key []byte) error {
	return c.inner.Delete(key)
}

func (c *compressedStore) ForEach(fn func(key, value []byte) bool) error {
	var decompressErr error
	err := c.inner.ForEach(func(key, stored []byte) bool {
		value, err := decompressValue(stored)
		if err != nil {
			decompressErr = err
			return false
		}
		return fn(key, value)
	})
	if decompressErr != nil {
		return decompressErr
	}
	return err
}

func (c *compressedStore) Sync() error { return c.inner.Sync() }

func (c *compressedStore) Close() error { return c.inner.Close() }

func compressValue(value []byte) []byte {
	bound := lz4.CompressBlockBound(len(value))
	buf := make([]byte, 4+bound)
	n, err := lz4.CompressBlock(value, buf[4:], nil)
	if err != nil || n == 0 || n >= len(value) {
		// Incompressible: store raw with a zero length prefix.
		out := make([]byte, 4+len(value))
		copy(out[4:], value)
		return out
	}
	binary.BigEndian.PutUint32(buf[:4], uint32(len(value)))
	return buf[:4+n]
}

func decompressValue(stored []byte) ([]byte, error) {
	if len(stored) < 4 {
		return nil, fmt.Errorf("compressed value too short")
	}
	size := binary.BigEndian.Uint32(stored[:4])
	if size == 0 {
		out := make([]byte, len(stored)-4)
		copy(out, stored[4:])
		return out, nil
	}
	out := make([]byte, size)
	n, err := lz4.UncompressBlock(stored[4:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out[:n], nil
}

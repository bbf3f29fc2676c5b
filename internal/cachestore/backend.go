package cachestore

import "sync"

// Backend is the physical key/value persistence behind a Store. Implementations
// must be safe for concurrent use and store values byte-for-byte.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// MemoryBackend keeps entries in process memory. It backs tests and
// cache-less operation; nothing survives a restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (b *MemoryBackend) Set(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = cp
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

func (b *MemoryBackend) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.entries))
	for key := range b.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func (b *MemoryBackend) Close() error { return nil }

// Package store implements the engine's local persistence: a byte-oriented
// key/value Backend (memory, atomic file, SQLite) and a typed Store that
// serializes one collection snapshot per key.
package store

import "sync"

//go:generate mockgen -source=backend.go -destination=../mock/backend_mock.go -package=mock

// Backend is a byte-oriented key/value persistence interface, keyed by
// collection name. Implementations must make Set atomic from the perspective
// of a concurrent Get: a reader never observes a half-written value.
type Backend interface {
	// Get returns the bytes stored under key. ok is false when the key has
	// never been written or has been removed.
	Get(key string) (value []byte, ok bool, err error)

	// Set durably stores value under key, replacing any previous value
	// atomically.
	Set(key string, value []byte) error

	// Remove deletes the value stored under key. Removing a missing key is
	// not an error.
	Remove(key string) error
}

// memoryBackend is a process-local Backend used in tests and for agents that
// accept losing the cache on restart.
type memoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryBackend returns an empty in-memory Backend.
func NewMemoryBackend() Backend {
	return &memoryBackend{values: make(map[string][]byte)}
}

func (m *memoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (m *memoryBackend) Set(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = cp
	return nil
}

func (m *memoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. It backs session-scoped data (auth flag,
// preview snapshot) and lives exactly as long as its owner keeps a reference.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	size    int
	quota   int // Max total bytes across all values; 0 means unlimited
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithQuota caps the total size of stored values in bytes.
func WithQuota(bytes int) MemoryOption {
	return func(m *MemoryStore) {
		m.quota = bytes
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{entries: make(map[string][]byte)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the value under key.
func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", key, ErrNotFound)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value. If the quota would be exceeded nothing changes.
func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newSize := m.size - len(m.entries[key]) + len(value)
	if m.quota > 0 && newSize > m.quota {
		return fmt.Errorf("entry %s needs %d bytes, limit %d: %w", key, newSize, m.quota, ErrQuotaExceeded)
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = stored
	m.size = newSize
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.size -= len(m.entries[key])
	delete(m.entries, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

package store

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and the shell's scratch mode.
// Scan sorts the key set on every call, so it is only meant for small data.
type MemStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte{}, v...), nil
}

func (m *MemStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrInvalidKey
	}
	m.data[string(key)] = append([]byte{}, value...)
	return nil
}

func (m *MemStore) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *MemStore) Scan(startKey []byte, limit int) (*ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if k >= string(startKey) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	b := NewScanBuilder(limit)
	for _, k := range keys {
		if b.Len() >= limit {
			break
		}
		b.Append(m.data[k])
	}
	return b.Result()
}

func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Stats counts keys and the bytes held in values.
func (m *MemStore) Stats() *StoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &StoreStats{Keys: len(m.data)}
	for _, v := range m.data {
		stats.DataSize += int64(len(v))
	}
	return stats
}

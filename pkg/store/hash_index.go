package store

import (
	"sync"
)

// HashIndex maps every live key to the location of its latest entry
type HashIndex struct {
	entries map[string]*IndexEntry
	mutex   sync.RWMutex
}

// NewHashIndex creates a new hash index
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[string]*IndexEntry),
	}
}

// Put adds or updates an index entry for a key
func (idx *HashIndex) Put(key []byte, entry *IndexEntry) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries[string(key)] = entry
}

// Get retrieves the index entry for a key
func (idx *HashIndex) Get(key []byte) (*IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	entry, exists := idx.entries[string(key)]
	return entry, exists
}

// Delete removes a key from the index
func (idx *HashIndex) Delete(key []byte) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	delete(idx.entries, string(key))
}

// Size returns the number of keys in the index
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}

// Keys returns all keys in the index in no particular order
func (idx *HashIndex) Keys() []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	keys := make([]string, 0, len(idx.entries))
	for key := range idx.entries {
		keys = append(keys, key)
	}
	return keys
}

// BuildFromLog replays a log file from the start and returns the number of
// entries read. Later entries win; a tombstone removes its key.
func (idx *HashIndex) BuildFromLog(reader *LogReader) (int64, error) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[string]*IndexEntry)

	if err := reader.Seek(0); err != nil {
		return 0, err
	}

	it := reader.Iterator()
	defer it.Close()

	var count int64
	for it.Next() {
		e := it.Entry()
		count++

		key := string(e.Key)
		if e.IsTombstone() {
			delete(idx.entries, key)
			continue
		}
		idx.entries[key] = &IndexEntry{
			FileID:    0, // Single file for now
			Offset:    reader.Offset() - int64(e.Size()),
			Size:      uint32(e.Size()),
			Timestamp: e.Timestamp,
		}
	}

	return count, it.Err()
}

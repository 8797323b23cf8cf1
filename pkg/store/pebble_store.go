package store

import (
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
)

// PebbleStore is the baseline engine, a LevelDB-family LSM tree.
type PebbleStore struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	mu        sync.RWMutex
	closed    bool
}

// OpenPebble opens or creates a pebble database in path.
func OpenPebble(path string, sync bool) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, opError("open", nil, err)
	}
	writeOpts := pebble.NoSync
	if sync {
		writeOpts = pebble.Sync
	}
	return &PebbleStore{db: db, writeOpts: writeOpts}, nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, opError("get", key, err)
	}
	defer closer.Close()

	// data is only valid until closer is closed
	return append([]byte(nil), data...), nil
}

func (s *PebbleStore) Put(key, value []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if len(key) == 0 {
		return ErrInvalidKey
	}
	return opError("put", key, s.db.Set(key, value, s.writeOpts))
}

func (s *PebbleStore) Delete(key []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return opError("delete", key, s.db.Delete(key, s.writeOpts))
}

func (s *PebbleStore) Scan(startKey []byte, limit int) (*ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: startKey})
	if err != nil {
		return nil, opError("scan", startKey, err)
	}

	b := NewScanBuilder(limit)
	for ok := iter.First(); ok && b.Len() < limit; ok = iter.Next() {
		b.Append(iter.Value())
	}
	if err := errors.Join(iter.Error(), iter.Close()); err != nil {
		return nil, opError("scan", startKey, err)
	}
	return b.Result()
}

func (s *PebbleStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return opError("close", nil, s.db.Close())
}

package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var recordsBucket = []byte("records")

// BoltStore keeps all records in a single bbolt bucket.
type BoltStore struct {
	bdb *bbolt.DB
}

// OpenBolt opens or creates records.db inside dir.
func OpenBolt(dir string, sync bool) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, opError("open", nil, err)
	}

	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	bopt.NoSync = !sync
	bopt.FreelistType = bbolt.FreelistMapType

	bdb, err := bbolt.Open(filepath.Join(dir, "records.db"), 0600, &bopt)
	if err != nil {
		return nil, opError("open", nil, err)
	}

	err = bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, opError("open", nil, err)
	}
	return &BoltStore{bdb: bdb}, nil
}

func (s *BoltStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		// Seek instead of Get so an empty value is told apart from a missing key
		k, v := btx.Bucket(recordsBucket).Cursor().Seek(key)
		if k == nil || !bytes.Equal(k, key) {
			return ErrKeyNotFound
		}
		// v is only valid for the life of the transaction
		value = append([]byte{}, v...)
		return nil
	})
	return value, s.wrap("get", key, err)
}

func (s *BoltStore) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrInvalidKey
	}
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		if value == nil {
			value = []byte{}
		}
		return btx.Bucket(recordsBucket).Put(key, value)
	})
	return s.wrap("put", key, err)
}

func (s *BoltStore) Delete(key []byte) error {
	err := s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(recordsBucket).Delete(key)
	})
	return s.wrap("delete", key, err)
}

func (s *BoltStore) Scan(startKey []byte, limit int) (*ScanResult, error) {
	b := NewScanBuilder(limit)
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		c := btx.Bucket(recordsBucket).Cursor()
		for k, v := c.Seek(startKey); k != nil && b.Len() < limit; k, v = c.Next() {
			b.Append(v)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("scan", startKey, err)
	}
	return b.Result()
}

func (s *BoltStore) Close() error {
	// bbolt treats closing a closed database as a no-op
	return opError("close", nil, s.bdb.Close())
}

func (s *BoltStore) wrap(op string, key []byte, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrKeyNotFound):
		return err
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return ErrClosed
	}
	return opError(op, key, err)
}

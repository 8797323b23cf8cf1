// Package adapter maps record-level operations (read, insert, update,
// delete, scan over named-field records) onto a byte-oriented store.Store.
//
// Every record is stored as one value produced by the codec package. Reads
// decode it, optionally keeping only some fields; scans fetch many values in
// one store call and decode them in parallel with package scan.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ssargent/recordkv/pkg/codec"
	"github.com/ssargent/recordkv/pkg/scan"
	"github.com/ssargent/recordkv/pkg/store"
)

// ErrInvalidCount is returned by Scan for a non-positive record count.
var ErrInvalidCount = errors.New("scan count must be positive")

// Observer receives one call per completed operation. *api.Metrics
// implements it.
type Observer interface {
	RecordDBOperation(operation string, success bool, duration time.Duration)
}

// DB runs record operations against a store.
type DB struct {
	store    store.Store
	logger   *slog.Logger
	observer Observer
	scanOpts []scan.Option
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) Option {
	return func(db *DB) { db.observer = o }
}

// WithScanWorkers bounds the goroutines used to decode one scan; 0 keeps
// the default of GOMAXPROCS.
func WithScanWorkers(n int) Option {
	return func(db *DB) {
		if n > 0 {
			db.scanOpts = append(db.scanOpts, scan.WithWorkers(n))
		}
	}
}

// New returns a DB over s. The DB takes ownership of s and closes it in Close.
func New(s store.Store, opts ...Option) *DB {
	db := &DB{
		store:  s,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Store returns the underlying store.
func (db *DB) Store() store.Store {
	return db.store
}

// Read returns the record stored under key, restricted to the fields in
// filter (nil keeps them all). A missing key yields store.ErrKeyNotFound.
func (db *DB) Read(key string, filter codec.FieldFilter) (codec.Record, error) {
	start := time.Now()
	if key == "" {
		return nil, db.finish("read", key, start, store.ErrInvalidKey)
	}

	value, err := db.store.Get([]byte(key))
	if err != nil {
		return nil, db.finish("read", key, start, err)
	}

	record, err := codec.Decode(value, filter)
	if err != nil {
		return nil, db.finish("read", key, start, fmt.Errorf("read %q: %w", key, err))
	}
	return record, db.finish("read", key, start, nil)
}

// Insert stores fields under key, replacing whatever was there.
func (db *DB) Insert(key string, fields codec.Record) error {
	start := time.Now()
	if key == "" {
		return db.finish("insert", key, start, store.ErrInvalidKey)
	}
	return db.finish("insert", key, start, db.store.Put([]byte(key), codec.Encode(fields)))
}

// Update merges fields into the record under key, with the new values
// winning on name clashes. A missing key is treated as an empty record, so
// Update also inserts.
//
// The read and the write are two separate store calls. Two concurrent
// updates of one key can interleave so that one writer's fields are lost.
// If the stored value cannot be decoded nothing is written; if the write
// fails the previous value stays in place.
func (db *DB) Update(key string, fields codec.Record) error {
	start := time.Now()
	if key == "" {
		return db.finish("update", key, start, store.ErrInvalidKey)
	}

	merged := make(codec.Record, len(fields))
	current, err := db.store.Get([]byte(key))
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
	case err != nil:
		return db.finish("update", key, start, err)
	default:
		existing, err := codec.Decode(current, nil)
		if err != nil {
			return db.finish("update", key, start, fmt.Errorf("update %q: stored record: %w", key, err))
		}
		for name, value := range existing {
			merged[name] = value
		}
	}

	for name, value := range fields {
		merged[name] = value
	}
	return db.finish("update", key, start, db.store.Put([]byte(key), codec.Encode(merged)))
}

// Delete removes key.
func (db *DB) Delete(key string) error {
	start := time.Now()
	if key == "" {
		return db.finish("delete", key, start, store.ErrInvalidKey)
	}
	return db.finish("delete", key, start, db.store.Delete([]byte(key)))
}

// Scan returns up to count records in key order, starting at the first key
// >= startKey. It yields store.ErrKeyNotFound when the range is empty. One
// malformed record fails the whole scan with a *scan.SliceError.
func (db *DB) Scan(startKey string, count int, filter codec.FieldFilter) ([]codec.Record, error) {
	start := time.Now()
	if count <= 0 {
		return nil, db.finish("scan", startKey, start, ErrInvalidCount)
	}

	res, err := db.store.Scan([]byte(startKey), count)
	if err != nil {
		return nil, db.finish("scan", startKey, start, err)
	}

	records, err := scan.Assemble(res.Buffer, res.Offsets, filter, db.scanOpts...)
	if err != nil {
		return nil, db.finish("scan", startKey, start, fmt.Errorf("scan from %q: %w", startKey, err))
	}
	return records, db.finish("scan", startKey, start, nil)
}

// Close closes the underlying store.
func (db *DB) Close() error {
	return db.store.Close()
}

func (db *DB) finish(op, key string, start time.Time, err error) error {
	elapsed := time.Since(start)
	status := StatusOf(err)

	if db.observer != nil {
		db.observer.RecordDBOperation(op, status != StatusError, elapsed)
	}

	switch status {
	case StatusNotFound:
		db.logger.Debug("record not found", "op", op, "key", key)
	case StatusError:
		db.logger.Error("record operation failed", "op", op, "key", key, "duration", elapsed, "error", err)
	}
	return err
}

package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/recordkv/pkg/bptree"
)

// DefaultIndexOrder is the branching factor of the ordered key index
const DefaultIndexOrder = 64

// KVStore is the log-structured engine: one append-only data file, a hash
// index for point lookups and a B+tree of live keys for range scans.
type KVStore struct {
	config   KVStoreConfig
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	ordered  *bptree.BPlusTree[string, struct{}]
	dataFile string
	mutex    sync.Mutex
	isOpen   bool
	closed   bool
}

// RecoveryResult describes what Open found in the data file
type RecoveryResult struct {
	RecordsValidated int64
	RecordsTruncated int64
	FileSizeBefore   int64
	FileSizeAfter    int64
	RecoveryTime     time.Duration
}

// NewKVStore creates a new key-value store instance
func NewKVStore(config KVStoreConfig) (*KVStore, error) {
	if err := os.MkdirAll(config.DataDir, 0750); err != nil {
		return nil, err
	}
	if config.IndexOrder <= 0 {
		config.IndexOrder = DefaultIndexOrder
	}

	return &KVStore{
		config:   config,
		dataFile: filepath.Join(config.DataDir, "active.data"),
		index:    NewHashIndex(),
		ordered:  bptree.NewBPlusTree[string, struct{}](config.IndexOrder),
	}, nil
}

// Open loads existing data, truncating a torn or corrupted tail
func (kv *KVStore) Open() (*RecoveryResult, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if kv.isOpen {
		return &RecoveryResult{}, nil
	}

	recovery, err := kv.validateLogFile(kv.dataFile)
	if err != nil {
		return nil, err
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      kv.dataFile,
		FsyncInterval: kv.config.FsyncInterval,
		BufferSize:    64 * 1024,
	})
	if err != nil {
		return nil, err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: kv.dataFile})
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	if _, err := kv.index.BuildFromLog(reader); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, err
	}

	kv.ordered = bptree.NewBPlusTree[string, struct{}](kv.config.IndexOrder)
	for _, key := range kv.index.Keys() {
		kv.ordered.Insert(key, struct{}{})
	}

	kv.writer = writer
	kv.reader = reader
	kv.isOpen = true
	kv.closed = false
	return recovery, nil
}

// Get retrieves a value for a key
func (kv *KVStore) Get(key []byte) ([]byte, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return nil, kv.notOpen()
	}
	return kv.getInternal(key)
}

// getInternal reads the latest value of key; the caller holds the mutex
func (kv *KVStore) getInternal(key []byte) ([]byte, error) {
	entry, exists := kv.index.Get(key)
	if !exists {
		return nil, ErrKeyNotFound
	}

	e, err := kv.reader.ReadAt(entry.Offset)
	if err != nil {
		return nil, opError("get", key, err)
	}
	if e.IsTombstone() {
		return nil, ErrKeyNotFound
	}
	return e.Value, nil
}

// Put stores a key-value pair
func (kv *KVStore) Put(key, value []byte) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return kv.notOpen()
	}

	if len(key) == 0 {
		return ErrInvalidKey
	}

	offset, e, err := kv.writer.Put(key, value)
	if err != nil {
		return opError("put", key, err)
	}

	kv.index.Put(key, &IndexEntry{
		FileID:    0, // Single file for now
		Offset:    offset,
		Size:      uint32(e.Size()),
		Timestamp: e.Timestamp,
	})
	kv.ordered.Insert(string(key), struct{}{})

	return nil
}

// Delete removes a key by appending a tombstone. Deleting a missing key is
// not an error.
func (kv *KVStore) Delete(key []byte) error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return kv.notOpen()
	}

	if len(key) == 0 {
		return ErrInvalidKey
	}

	if _, _, err := kv.writer.Delete(key); err != nil {
		return opError("delete", key, err)
	}

	kv.index.Delete(key)
	kv.ordered.Delete(string(key))

	return nil
}

// Scan returns up to limit values in key order from the first key >= startKey
func (kv *KVStore) Scan(startKey []byte, limit int) (*ScanResult, error) {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return nil, kv.notOpen()
	}
	if limit <= 0 {
		return nil, ErrKeyNotFound
	}

	b := NewScanBuilder(limit)
	var scanErr error
	kv.ordered.Ascend(string(startKey), func(key string, _ struct{}) bool {
		value, err := kv.getInternal([]byte(key))
		if err != nil {
			scanErr = err
			return false
		}
		b.Append(value)
		return b.Len() < limit
	})
	if scanErr != nil {
		return nil, scanErr
	}

	return b.Result()
}

// Close shuts down the store
func (kv *KVStore) Close() error {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return nil
	}

	kv.isOpen = false
	kv.closed = true

	// Close writer first (ensures all data is flushed)
	werr := kv.writer.Close()
	rerr := kv.reader.Close()
	return errors.Join(werr, rerr)
}

func (kv *KVStore) notOpen() error {
	if kv.closed {
		return ErrClosed
	}
	return ErrNotOpen
}

// validateLogFile reads the data file up to the first bad entry and truncates
// everything from there on
func (kv *KVStore) validateLogFile(filePath string) (*RecoveryResult, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{RecoveryTime: time.Since(startTime)}, nil
		}
		return nil, err
	}

	fileSizeBefore := fileInfo.Size()

	reader, err := NewLogReader(LogReaderConfig{FilePath: filePath})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var recordsValidated int64
	var lastValidOffset int64
	var corruptionFound bool

	for {
		_, err := reader.ReadNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			if !errors.Is(err, ErrCorruption) {
				return nil, err
			}
			corruptionFound = true
			break
		}

		recordsValidated++
		lastValidOffset = reader.Offset()
	}

	result := &RecoveryResult{
		RecordsValidated: recordsValidated,
		FileSizeBefore:   fileSizeBefore,
		FileSizeAfter:    fileSizeBefore,
	}

	if corruptionFound {
		if err := os.Truncate(filePath, lastValidOffset); err != nil {
			return nil, err
		}
		result.FileSizeAfter = lastValidOffset
		result.RecordsTruncated = 1 // Everything after the first bad entry counts as one torn write
	}

	result.RecoveryTime = time.Since(startTime)
	return result, nil
}

// Stats returns store statistics
func (kv *KVStore) Stats() *StoreStats {
	kv.mutex.Lock()
	defer kv.mutex.Unlock()

	if !kv.isOpen {
		return &StoreStats{}
	}

	return &StoreStats{
		Keys:     kv.index.Size(),
		DataSize: kv.writer.Size(),
	}
}

// StoreStats holds statistics about the store
type StoreStats struct {
	Keys     int
	DataSize int64
}

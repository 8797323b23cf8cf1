package store

import (
	"fmt"
	"time"
)

// Store is the byte-keyed backend records are persisted in. Values are opaque
// to the store; it never looks inside them.
type Store interface {
	// Get returns the value for key or ErrKeyNotFound.
	Get(key []byte) ([]byte, error)
	// Put writes value under key, replacing any previous value.
	Put(key, value []byte) error
	// Delete removes key.
	Delete(key []byte) error
	// Scan returns up to limit values in key order starting at the first key
	// >= startKey, or ErrKeyNotFound when there are none.
	Scan(startKey []byte, limit int) (*ScanResult, error)
	// Close releases the store. Calling it more than once is a no-op.
	Close() error
}

// ScanResult holds the values of a range scan packed back to back in Buffer.
// Value i occupies Buffer[Offsets[i]:Offsets[i+1]].
type ScanResult struct {
	Buffer  []byte
	Offsets []int
}

// Len returns the number of values in the result.
func (r *ScanResult) Len() int {
	if len(r.Offsets) == 0 {
		return 0
	}
	return len(r.Offsets) - 1
}

// Value returns value i. The slice aliases Buffer.
func (r *ScanResult) Value(i int) []byte {
	return r.Buffer[r.Offsets[i]:r.Offsets[i+1]]
}

// ScanBuilder accumulates values into a ScanResult.
type ScanBuilder struct {
	result ScanResult
}

// maxScanPrealloc caps the offsets reserved up front; limit comes from
// callers and larger scans grow by append.
const maxScanPrealloc = 1024

// NewScanBuilder creates a builder sized for up to limit values.
func NewScanBuilder(limit int) *ScanBuilder {
	limit = max(0, min(limit, maxScanPrealloc))
	offsets := make([]int, 1, limit+1)
	return &ScanBuilder{result: ScanResult{Offsets: offsets}}
}

// Append copies value onto the end of the buffer.
func (b *ScanBuilder) Append(value []byte) {
	b.result.Buffer = append(b.result.Buffer, value...)
	b.result.Offsets = append(b.result.Offsets, len(b.result.Buffer))
}

// Len returns the number of values appended so far.
func (b *ScanBuilder) Len() int {
	return len(b.result.Offsets) - 1
}

// Result returns the accumulated values, or ErrKeyNotFound if there are none.
func (b *ScanBuilder) Result() (*ScanResult, error) {
	if b.Len() == 0 {
		return nil, ErrKeyNotFound
	}
	r := b.result
	return &r, nil
}

// IndexEntry represents the location of a record in the log
type IndexEntry struct {
	FileID    uint32 // ID of the data file
	Offset    int64  // Byte offset within the file
	Size      uint32 // Size of the log entry in bytes
	Timestamp uint64 // Entry timestamp
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// KVStoreConfig holds configuration for the log-structured store
type KVStoreConfig struct {
	DataDir       string        // Directory for data files
	FsyncInterval time.Duration // Fsync interval for durability
	IndexOrder    int           // Branching factor of the ordered key index
}

// EntryIterator provides streaming access to log entries
type EntryIterator interface {
	Next() bool
	Entry() *LogEntry
	Err() error
	Close() error
}

// Errors
var (
	ErrKeyNotFound = &KVError{"key not found"}
	ErrInvalidKey  = &KVError{"invalid key"}
	ErrCorruption  = &KVError{"data corruption detected"}
	ErrClosed      = &KVError{"store is closed"}
	ErrNotOpen     = &KVError{"store is not open"}
)

// KVError represents a key-value store error
type KVError struct {
	Message string
}

func (e *KVError) Error() string {
	return e.Message
}

// OpError wraps a failure reported by a storage engine or remote service.
type OpError struct {
	Op  string // get, put, delete, scan, open, close
	Key []byte
	Err error
}

func (e *OpError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, key []byte, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Key: append([]byte(nil), key...), Err: err}
}

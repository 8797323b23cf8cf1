package store

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
)

// entryHeaderSize is CRC32(4) + KeySize(4) + ValueSize(4) + Timestamp(8)
const entryHeaderSize = 20

// tombstoneSize in the ValueSize slot marks a deletion. It keeps deletions
// distinct from empty values, which are legal (an empty record encodes to
// zero bytes).
const tombstoneSize = ^uint32(0)

// LogEntry is one frame of the append-only data file.
// Format: [CRC32(4)][KeySize(4)][ValueSize(4)][Timestamp(8)][Key][Value]
type LogEntry struct {
	CRC32     uint32 // CRC32 over everything after the CRC field
	KeySize   uint32 // Size of the key in bytes
	ValueSize uint32 // Size of the value in bytes, tombstoneSize for deletions
	Timestamp uint64 // Unix timestamp in nanoseconds
	Key       []byte
	Value     []byte
}

// NewLogEntry creates an entry for a put with the current timestamp
func NewLogEntry(key, value []byte) *LogEntry {
	if int64(len(key)) > int64(^uint32(0)) {
		panic("key too large")
	}
	if int64(len(value)) >= int64(tombstoneSize) {
		panic("value too large")
	}
	return &LogEntry{
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Timestamp: uint64(time.Now().UnixNano()),
		Key:       key,
		Value:     value,
	}
}

// NewTombstone creates an entry recording the deletion of key
func NewTombstone(key []byte) *LogEntry {
	e := NewLogEntry(key, nil)
	e.ValueSize = tombstoneSize
	return e
}

// IsTombstone reports whether the entry records a deletion
func (e *LogEntry) IsTombstone() bool {
	return e.ValueSize == tombstoneSize
}

// valueBytes is the number of value bytes stored after the key
func (e *LogEntry) valueBytes() int {
	if e.IsTombstone() {
		return 0
	}
	return int(e.ValueSize)
}

// Size returns the encoded size of the entry
func (e *LogEntry) Size() int {
	return entryHeaderSize + int(e.KeySize) + e.valueBytes()
}

// Encode serializes the entry, filling in its checksum
func (e *LogEntry) Encode() []byte {
	e.CRC32 = e.checksum()

	buf := make([]byte, e.Size())
	binary.LittleEndian.PutUint32(buf[0:], e.CRC32)
	binary.LittleEndian.PutUint32(buf[4:], e.KeySize)
	binary.LittleEndian.PutUint32(buf[8:], e.ValueSize)
	binary.LittleEndian.PutUint64(buf[12:], e.Timestamp)
	copy(buf[entryHeaderSize:], e.Key)
	copy(buf[entryHeaderSize+int(e.KeySize):], e.Value)
	return buf
}

// Validate checks the integrity of an entry using CRC32
func (e *LogEntry) Validate() error {
	if sum := e.checksum(); e.CRC32 != sum {
		return fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorruption, e.CRC32, sum)
	}
	return nil
}

func (e *LogEntry) checksum() uint32 {
	var header [12]byte
	binary.LittleEndian.PutUint32(header[0:], e.KeySize)
	binary.LittleEndian.PutUint32(header[4:], e.ValueSize)
	binary.LittleEndian.PutUint64(header[8:], e.Timestamp)

	crc := crc32.NewIEEE()
	crc.Write(header[:])
	crc.Write(e.Key)
	crc.Write(e.Value)
	return crc.Sum32()
}

// decodeEntryHeader parses the fixed header; the returned entry has no key or
// value yet.
func decodeEntryHeader(header []byte) (*LogEntry, error) {
	if len(header) < entryHeaderSize {
		return nil, fmt.Errorf("%w: header too short: %d bytes", ErrCorruption, len(header))
	}
	return &LogEntry{
		CRC32:     binary.LittleEndian.Uint32(header[0:4]),
		KeySize:   binary.LittleEndian.Uint32(header[4:8]),
		ValueSize: binary.LittleEndian.Uint32(header[8:12]),
		Timestamp: binary.LittleEndian.Uint64(header[12:20]),
	}, nil
}

// DecodeLogEntry deserializes a complete entry and validates its checksum
func DecodeLogEntry(data []byte) (*LogEntry, error) {
	e, err := decodeEntryHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < e.Size() {
		return nil, fmt.Errorf("%w: data too short for key/value sizes: %d < %d", ErrCorruption, len(data), e.Size())
	}
	keyEnd := entryHeaderSize + int(e.KeySize)
	e.Key = data[entryHeaderSize:keyEnd]
	e.Value = data[keyEnd : keyEnd+e.valueBytes()]
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogReader provides sequential and random access to entries in a log file
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
	config LogReaderConfig
	mutex  sync.Mutex // guards file position for ReadAt
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the entry at the current offset. It returns io.EOF at a
// clean end of file and ErrCorruption for a torn or damaged entry.
func (r *LogReader) ReadNext() (*LogEntry, error) {
	avail, err := r.available(r.offset)
	if err != nil {
		return nil, err
	}
	entry, n, err := readEntry(r.reader, avail)
	if err != nil {
		return nil, err
	}
	r.offset += int64(n)
	return entry, nil
}

// ReadAt reads the entry starting at offset without moving the sequential
// cursor
func (r *LogReader) ReadAt(offset int64) (*LogEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	avail, err := r.available(offset)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(r.file, offset, avail)
	entry, _, err := readEntry(section, avail)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no entry at offset %d", ErrCorruption, offset)
	}
	return entry, err
}

// available returns the number of bytes in the file from offset to its end
func (r *LogReader) available(offset int64) (int64, error) {
	info, err := r.file.Stat()
	if err != nil {
		return 0, err
	}
	if n := info.Size() - offset; n > 0 {
		return n, nil
	}
	return 0, nil
}

// readEntry decodes one entry from src and returns it with its size. avail
// bounds the entry: sizes in the header that reach past it are corruption.
func readEntry(src io.Reader, avail int64) (*LogEntry, int, error) {
	header := make([]byte, entryHeaderSize)
	if _, err := io.ReadFull(src, header); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, 0, fmt.Errorf("%w: torn entry header", ErrCorruption)
		}
		return nil, 0, err
	}

	entry, err := decodeEntryHeader(header)
	if err != nil {
		return nil, 0, err
	}

	bodySize := int64(entry.KeySize) + int64(entry.valueBytes())
	if bodySize > avail-entryHeaderSize {
		return nil, 0, fmt.Errorf("%w: entry body of %d bytes exceeds the %d bytes left in the file",
			ErrCorruption, bodySize, avail-entryHeaderSize)
	}
	data := make([]byte, bodySize)
	if _, err := io.ReadFull(src, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, 0, fmt.Errorf("%w: torn entry body", ErrCorruption)
		}
		return nil, 0, err
	}
	entry.Key = data[:entry.KeySize]
	entry.Value = data[entry.KeySize:]
	if entry.IsTombstone() {
		entry.Value = nil
	}

	if err := entry.Validate(); err != nil {
		return nil, 0, err
	}
	return entry, entry.Size(), nil
}

// Seek sets the read offset
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	r.reader = bufio.NewReader(r.file)
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over entries
func (r *LogReader) Iterator() EntryIterator {
	return &logEntryIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

// logEntryIterator implements EntryIterator for streaming access
type logEntryIterator struct {
	reader *LogReader
	entry  *LogEntry
	err    error
}

func (it *logEntryIterator) Next() bool {
	it.entry, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logEntryIterator) Entry() *LogEntry {
	return it.entry
}

// Err returns the error that stopped iteration, nil at a clean end of file
func (it *logEntryIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *logEntryIterator) Close() error {
	// The underlying reader is owned by the caller
	return nil
}

package cmd

import (
	"fmt"
	"io"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/recordkv/pkg/adapter"
	"github.com/ssargent/recordkv/pkg/codec"
)

// defaultScanCount matches the record count benchmark scans usually ask for
const defaultScanCount = 10

// recordOps runs record commands against one DB. The cobra commands and
// the shell both go through it.
type recordOps struct {
	db     *adapter.DB
	out    io.Writer
	asJSON bool
}

func (o *recordOps) read(key string, filter codec.FieldFilter) error {
	rec, err := o.db.Read(key, filter)
	if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}
	return printRecord(o.out, rec, o.asJSON)
}

// readRaw prints the stored value field by field in encoded order, with
// the encoded size. Filters do not apply.
func (o *recordOps) readRaw(key string) error {
	value, err := o.db.Store().Get([]byte(key))
	if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}
	fields, err := codec.Fields(value)
	if err != nil {
		return fmt.Errorf("read %q: %w", key, err)
	}
	for _, f := range fields {
		fmt.Fprintf(o.out, "%s=%q\n", f.Name, f.Value)
	}
	fmt.Fprintf(o.out, "(%d fields, %d bytes encoded)\n", len(fields), len(value))
	return nil
}

// insert stores fields under key, or under a fresh ksuid when key is empty,
// and returns the key used.
func (o *recordOps) insert(key string, fields codec.Record) (string, error) {
	if key == "" {
		key = ksuid.New().String()
	}
	if err := o.db.Insert(key, fields); err != nil {
		return "", fmt.Errorf("insert %q: %w", key, err)
	}
	fmt.Fprintf(o.out, "Inserted key '%s' (%d fields)\n", key, len(fields))
	return key, nil
}

func (o *recordOps) update(key string, fields codec.Record) error {
	if err := o.db.Update(key, fields); err != nil {
		return fmt.Errorf("update %q: %w", key, err)
	}
	fmt.Fprintf(o.out, "Updated key '%s' (%d fields)\n", key, len(fields))
	return nil
}

func (o *recordOps) remove(key string) error {
	if err := o.db.Delete(key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	fmt.Fprintf(o.out, "Deleted key '%s'\n", key)
	return nil
}

func (o *recordOps) scan(startKey string, count int, filter codec.FieldFilter) error {
	records, err := o.db.Scan(startKey, count, filter)
	if err != nil {
		return fmt.Errorf("scan from %q: %w", startKey, err)
	}
	return printRecords(o.out, records, o.asJSON)
}

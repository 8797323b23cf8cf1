//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzRecordCodec_RoundTrip tests encode/decode round-trip with random inputs
func FuzzRecordCodec_RoundTrip(f *testing.F) {
	codec := NewRecordCodec()

	// Add seed corpus
	f.Add("field0", []byte(""), "field1", []byte(""))
	f.Add("user", []byte("john@example.com"), "age", []byte("42"))
	f.Add("a", []byte{0x00, 0x01, 0x02}, "b", []byte{0xFF, 0xFE, 0xFD})

	f.Fuzz(func(t *testing.T, k1 string, v1 []byte, k2 string, v2 []byte) {
		// Skip extremely large inputs to avoid timeout
		if len(k1) > 10000 || len(v1) > 100000 || len(k2) > 10000 || len(v2) > 100000 {
			t.Skip("Input too large for fuzz test")
		}
		if k1 == "" || k2 == "" {
			t.Skip("Field names must be non-empty")
		}

		record := Record{k1: v1, k2: v2}

		decoded, err := codec.Decode(codec.Encode(record), nil)
		if err != nil {
			t.Fatalf("Decode failed for fields %q, %q: %v", k1, k2, err)
		}

		if len(decoded) != len(record) {
			t.Fatalf("Field count mismatch: got %d, want %d", len(decoded), len(record))
		}
		for name, value := range record {
			if !bytes.Equal(decoded[name], value) {
				t.Errorf("Value mismatch for %q: got %q, want %q", name, decoded[name], value)
			}
		}
	})
}

// FuzzRecordCodec_MalformedData tests that arbitrary input never panics and
// never yields a partial record
func FuzzRecordCodec_MalformedData(f *testing.F) {
	// Add seed corpus of malformed data
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add([]byte{0x00, 0x00, 0x00, 0x01})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	f.Add(Encode(Record{"k": []byte("v")}))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Skip extremely large inputs
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		record, err := Decode(data, nil)
		if err != nil {
			if record != nil {
				t.Errorf("Partial record returned with error: %v", record)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Unexpected error type: %v", err)
			}
			return
		}

		// Well-formed input must re-encode to the same field set
		fields, err := Fields(data)
		if err != nil {
			t.Fatalf("Fields disagrees with Decode: %v", err)
		}
		if !bytes.Equal(EncodeFields(fields), data) {
			t.Errorf("Re-encoding decoded fields does not reproduce input")
		}
	})
}

// Property test: encoded size should match the computed size
func FuzzRecord_SizeProperty(f *testing.F) {
	// Add seed corpus
	f.Add("k", []byte(""))
	f.Add("key", []byte("value"))

	f.Fuzz(func(t *testing.T, name string, value []byte) {
		// Skip extremely large inputs
		if len(name) > 10000 || len(value) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		record := Record{name: value}
		expectedSize := 8 + len(name) + len(value)

		if EncodedSize(record) != expectedSize {
			t.Errorf("Size calculation wrong: got %d, want %d", EncodedSize(record), expectedSize)
		}
		if encoded := Encode(record); len(encoded) != expectedSize {
			t.Errorf("Encoded size mismatch: got %d, want %d", len(encoded), expectedSize)
		}
	})
}

package codec_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/ssargent/recordkv/pkg/codec"
)

// ExampleRecordCodec_basic demonstrates basic record encoding and decoding
func ExampleRecordCodec_basic() {
	// Create a new codec
	c := codec.NewRecordCodec()

	// Encode a record
	encoded := c.Encode(codec.Record{
		"name":  []byte("john"),
		"email": []byte("john@example.com"),
	})

	fmt.Printf("Encoded %d bytes\n", len(encoded))

	// Decode it again
	record, err := c.Decode(encoded, nil)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("name: %s\n", record["name"])
	fmt.Printf("email: %s\n", record["email"])

	// Output:
	// Encoded 45 bytes
	// name: john
	// email: john@example.com
}

// ExampleDecode_filter demonstrates reading a subset of fields
func ExampleDecode_filter() {
	encoded := codec.Encode(codec.Record{
		"field0": []byte("a"),
		"field1": []byte("b"),
		"field2": []byte("c"),
	})

	record, err := codec.Decode(encoded, codec.NewFieldFilter("field1", "field9"))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("fields: %d\n", len(record))
	fmt.Printf("field1: %s\n", record["field1"])

	// Output:
	// fields: 1
	// field1: b
}

// ExampleEncodeFields demonstrates the byte layout
func ExampleEncodeFields() {
	encoded := codec.EncodeFields([]codec.Field{
		{Name: "a", Value: []byte("1")},
		{Name: "bb", Value: []byte("22")},
	})

	fmt.Printf("% x\n", encoded)

	// Output:
	// 00 00 00 01 61 00 00 00 01 31 00 00 00 02 62 62 00 00 00 02 32 32
}

// ExampleDecode_errorHandling demonstrates error handling
func ExampleDecode_errorHandling() {
	// Key length claims 16 bytes, only 1 follows
	malformed := []byte{0x00, 0x00, 0x00, 0x10, 'x'}

	_, err := codec.Decode(malformed, nil)
	if errors.Is(err, codec.ErrMalformed) {
		fmt.Printf("Decode error: %v\n", err)
	}

	// Output:
	// Decode error: malformed encoded record: key at offset 4 needs 16 bytes, only 1 before end 5
}

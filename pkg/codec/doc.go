// Package codec provides the field record format used by recordkv.
//
// A record is a set of named fields. The store underneath only understands
// whole byte values, so every record is packed into one opaque byte string and
// stored under a single key. The codec package owns that packing and the
// matching decoder.
//
// # Record Format
//
// An encoded record is a concatenation of zero or more entries:
//
//	[KeyLen(4)][Key][ValueLen(4)][Value] [KeyLen(4)][Key][ValueLen(4)][Value] ...
//
// Fields:
//   - KeyLen: 32-bit unsigned field name length (big-endian)
//   - Key: field name bytes, UTF-8
//   - ValueLen: 32-bit unsigned value length (big-endian)
//   - Value: raw value bytes, possibly empty
//
// The entries exactly cover the buffer: decoding stops when the cursor reaches
// the end of the range, and an empty record encodes to zero bytes. There is no
// checksum, no compression and no version byte.
//
// For example {"a":"1","bb":"22"} written in that order is
//
//	00 00 00 01 'a' 00 00 00 01 '1' 00 00 00 02 'b' 'b' 00 00 00 02 '2' '2'
//
// # Usage
//
//	encoded := codec.Encode(codec.Record{
//	    "field0": []byte("alpha"),
//	    "field1": []byte("beta"),
//	})
//
//	// All fields
//	record, err := codec.Decode(encoded, nil)
//
//	// Only field1
//	record, err = codec.Decode(encoded, codec.NewFieldFilter("field1"))
//
// Encode sorts fields by name so equal records always produce equal bytes.
// EncodeFields keeps the caller's order instead.
//
// # Ranges
//
// DecodeRange decodes one record out of a larger buffer, which is how range
// scans hand back many records at once: one buffer plus an offsets array. See
// package scan for the assembler built on top of it.
//
// # Error Handling
//
// A length prefix that points past the end of the decode range produces a
// *DecodeError, which matches ErrMalformed under errors.Is. The format carries
// no markers to resynchronise on, so a malformed buffer is never partially
// returned.
//
// # Thread Safety
//
// All functions are pure and RecordCodec holds no state; both are safe for
// concurrent use. Decoded values alias the input buffer, so callers must not
// modify the buffer while the record is in use.
package codec

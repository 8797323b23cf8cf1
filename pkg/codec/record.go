package codec

import (
	"encoding/binary"
	"sort"
)

// lenSize is the width of every length prefix in an encoded record.
const lenSize = 4

// maxLen is the largest key or value length a prefix can describe.
const maxLen = int64(^uint32(0))

// Record maps field names to raw values. Iteration order carries no meaning.
type Record map[string][]byte

// Field is a single named value, used where the encoding order matters
type Field struct {
	Name  string
	Value []byte
}

// RecordCodec handles serialization and deserialization of records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode serializes a record into the flat field format
// Format: repeated [KeyLen(4)][Key][ValueLen(4)][Value], big-endian lengths
func (c *RecordCodec) Encode(r Record) []byte {
	return Encode(r)
}

// Decode deserializes an encoded record, keeping only the fields selected by filter
func (c *RecordCodec) Decode(data []byte, filter FieldFilter) (Record, error) {
	return Decode(data, filter)
}

// DecodeRange deserializes the record stored in data[offset:end]
func (c *RecordCodec) DecodeRange(data []byte, offset, end int, filter FieldFilter) (Record, error) {
	return DecodeRange(data, offset, end, filter)
}

// Encode serializes r with its fields in ascending name order, so equal records
// always produce equal bytes.
func Encode(r Record) []byte {
	return AppendEncoded(make([]byte, 0, EncodedSize(r)), r)
}

// AppendEncoded appends the encoding of r to dst and returns the extended slice.
func AppendEncoded(dst []byte, r Record) []byte {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dst = appendField(dst, name, r[name])
	}
	return dst
}

// EncodeFields serializes fields in exactly the order given.
func EncodeFields(fields []Field) []byte {
	size := 0
	for _, f := range fields {
		size += fieldSize(f.Name, f.Value)
	}
	buf := make([]byte, 0, size)
	for _, f := range fields {
		buf = appendField(buf, f.Name, f.Value)
	}
	return buf
}

// EncodedSize returns the number of bytes Encode(r) produces.
func EncodedSize(r Record) int {
	size := 0
	for name, value := range r {
		size += fieldSize(name, value)
	}
	return size
}

func fieldSize(name string, value []byte) int {
	return 2*lenSize + len(name) + len(value)
}

func appendField(dst []byte, name string, value []byte) []byte {
	if int64(len(name)) > maxLen {
		panic("codec: field name too large")
	}
	if int64(len(value)) > maxLen {
		panic("codec: field value too large")
	}
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(name)))
	dst = append(dst, name...)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(value)))
	dst = append(dst, value...)
	return dst
}

// Decode deserializes a whole encoded record.
func Decode(data []byte, filter FieldFilter) (Record, error) {
	return DecodeRange(data, 0, len(data), filter)
}

// DecodeRange deserializes the record occupying data[offset:end]. Fields are
// kept when filter is nil or names them. Returned values alias data.
//
// A length prefix that would read past end is reported as a *DecodeError; the
// format has no way to resynchronise, so nothing after the bad prefix is
// returned.
func DecodeRange(data []byte, offset, end int, filter FieldFilter) (Record, error) {
	if offset < 0 || end > len(data) || offset > end {
		return nil, &DecodeError{Offset: offset, End: end, Need: int64(end - offset), Part: "range"}
	}

	result := make(Record)
	err := walk(data, offset, end, func(name string, value []byte) {
		if filter.Contains(name) {
			result[name] = value
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Fields decodes data into its fields in stored order.
func Fields(data []byte) ([]Field, error) {
	var fields []Field
	err := walk(data, 0, len(data), func(name string, value []byte) {
		fields = append(fields, Field{Name: name, Value: value})
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// walk visits every entry of data[offset:end] in order.
func walk(data []byte, offset, end int, visit func(name string, value []byte)) error {
	cursor := offset
	for cursor < end {
		keyLen, err := readPrefixed(data, cursor, end, "key")
		if err != nil {
			return err
		}
		cursor += lenSize
		name := string(data[cursor : cursor+keyLen])
		cursor += keyLen

		valueLen, err := readPrefixed(data, cursor, end, "value")
		if err != nil {
			return err
		}
		cursor += lenSize
		visit(name, data[cursor:cursor+valueLen:cursor+valueLen])
		cursor += valueLen
	}
	return nil
}

// readPrefixed reads the length prefix at cursor and checks that both the
// prefix and the bytes it announces fit before end.
func readPrefixed(data []byte, cursor, end int, part string) (int, error) {
	if end-cursor < lenSize {
		return 0, &DecodeError{Offset: cursor, End: end, Need: lenSize, Part: part + " length"}
	}
	n := int64(binary.BigEndian.Uint32(data[cursor : cursor+lenSize]))
	if n > int64(end-cursor-lenSize) {
		return 0, &DecodeError{Offset: cursor + lenSize, End: end, Need: n, Part: part}
	}
	return int(n), nil
}

package scan

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/recordkv/pkg/codec"
)

// pack concatenates encoded records and returns the buffer and offsets a
// store would produce for them.
func pack(records ...codec.Record) ([]byte, []int) {
	var buf []byte
	offsets := []int{0}
	for _, r := range records {
		buf = codec.AppendEncoded(buf, r)
		offsets = append(offsets, len(buf))
	}
	return buf, offsets
}

func TestAssemble_TwoRecords(t *testing.T) {
	r1 := codec.Record{"a": []byte("1")}
	r2 := codec.Record{"b": []byte("2"), "c": []byte("3")}

	buf, offsets := pack(r1, r2)
	require.Equal(t, []int{0, len(codec.Encode(r1)), len(codec.Encode(r1)) + len(codec.Encode(r2))}, offsets)

	records, err := Assemble(buf, offsets, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, r1, records[0])
	assert.Equal(t, r2, records[1])
}

func TestAssemble_PreservesIndexOrderInParallel(t *testing.T) {
	const n = 2000

	records := make([]codec.Record, n)
	for i := range records {
		records[i] = codec.Record{
			"id":     []byte(fmt.Sprintf("%d", i)),
			"field0": []byte(fmt.Sprintf("value-%d", i)),
		}
	}
	buf, offsets := pack(records...)

	for _, workers := range []int{1, 2, 8, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := Assemble(buf, offsets, nil, WithWorkers(workers), WithSequentialBelow(0))
			require.NoError(t, err)
			require.Len(t, got, n)
			for i := range got {
				assert.Equal(t, fmt.Sprintf("%d", i), string(got[i]["id"]), "record %d out of order", i)
			}
		})
	}
}

func TestAssemble_EachRecordMatchesItsSlice(t *testing.T) {
	buf, offsets := pack(
		codec.Record{"field0": []byte("x"), "field1": []byte("y")},
		codec.Record{},
		codec.Record{"field1": []byte("z")},
	)
	filter := codec.NewFieldFilter("field1")

	got, err := Assemble(buf, offsets, filter, WithSequentialBelow(0), WithWorkers(3))
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i := range got {
		want, err := codec.DecodeRange(buf, offsets[i], offsets[i+1], filter)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
	assert.Empty(t, got[1])
}

func TestAssemble_Empty(t *testing.T) {
	got, err := Assemble(nil, []int{0}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAssemble_MalformedSlice(t *testing.T) {
	good := codec.Record{"a": []byte("1")}
	buf, offsets := pack(good, good, good, good, good, good, good, good, good, good)

	// Cut the value length of record 6 so its key length points past its slice
	corrupt := append([]byte{}, buf...)
	start := offsets[6]
	corrupt[start+3] = 0x7F

	for _, opts := range [][]Option{
		nil,
		{WithSequentialBelow(0), WithWorkers(4)},
	} {
		records, err := Assemble(corrupt, offsets, nil, opts...)
		require.Error(t, err)
		assert.Nil(t, records)

		var sliceErr *SliceError
		require.True(t, errors.As(err, &sliceErr))
		assert.Equal(t, 6, sliceErr.Index)
		assert.Equal(t, offsets[6], sliceErr.Start)
		assert.Equal(t, offsets[7], sliceErr.End)
		assert.True(t, errors.Is(err, codec.ErrMalformed))
	}
}

func TestValidateOffsets(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		bufLen  int
		wantErr bool
	}{
		{name: "single record", offsets: []int{0, 10}, bufLen: 10},
		{name: "no records", offsets: []int{0}, bufLen: 0},
		{name: "empty record in the middle", offsets: []int{0, 4, 4, 9}, bufLen: 9},
		{name: "missing offsets", offsets: nil, bufLen: 0, wantErr: true},
		{name: "does not start at zero", offsets: []int{2, 10}, bufLen: 10, wantErr: true},
		{name: "decreasing", offsets: []int{0, 6, 5, 10}, bufLen: 10, wantErr: true},
		{name: "short of buffer end", offsets: []int{0, 9}, bufLen: 10, wantErr: true},
		{name: "past buffer end", offsets: []int{0, 11}, bufLen: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOffsets(tt.offsets, tt.bufLen)
			if tt.wantErr {
				var offErr *OffsetsError
				assert.True(t, errors.As(err, &offErr), "expected *OffsetsError, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssemble_RejectsBadOffsets(t *testing.T) {
	buf, _ := pack(codec.Record{"a": []byte("1")})

	_, err := Assemble(buf, []int{0, len(buf) - 1}, nil)
	var offErr *OffsetsError
	assert.True(t, errors.As(err, &offErr))
}

package adapter

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/recordkv/pkg/codec"
	"github.com/ssargent/recordkv/pkg/scan"
	"github.com/ssargent/recordkv/pkg/store"
)

type opRecord struct {
	op      string
	success bool
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []opRecord
}

func (o *recordingObserver) RecordDBOperation(op string, success bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, opRecord{op, success})
}

// failingStore wraps a store and fails puts on demand.
type failingStore struct {
	store.Store
	failPut error
}

func (f *failingStore) Put(key, value []byte) error {
	if f.failPut != nil {
		return f.failPut
	}
	return f.Store.Put(key, value)
}

func rec(kv ...string) codec.Record {
	r := codec.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = []byte(kv[i+1])
	}
	return r
}

func TestDB_InsertRead(t *testing.T) {
	db := New(store.NewMemStore())
	defer db.Close()

	require.NoError(t, db.Insert("user1", rec("field0", "alpha", "field1", "beta")))

	got, err := db.Read("user1", nil)
	require.NoError(t, err)
	assert.Equal(t, rec("field0", "alpha", "field1", "beta"), got)

	got, err = db.Read("user1", codec.NewFieldFilter("field1", "missing"))
	require.NoError(t, err)
	assert.Equal(t, rec("field1", "beta"), got)

	// Insert overwrites, it does not merge
	require.NoError(t, db.Insert("user1", rec("field2", "gamma")))
	got, err = db.Read("user1", nil)
	require.NoError(t, err)
	assert.Equal(t, rec("field2", "gamma"), got)
}

func TestDB_ReadMissing(t *testing.T) {
	db := New(store.NewMemStore())

	_, err := db.Read("nope", nil)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))
	assert.Equal(t, StatusNotFound, StatusOf(err))
}

func TestDB_UpdateMerges(t *testing.T) {
	db := New(store.NewMemStore())

	require.NoError(t, db.Insert("k", rec("a", "1", "b", "2")))
	require.NoError(t, db.Update("k", rec("b", "3", "c", "4")))

	got, err := db.Read("k", nil)
	require.NoError(t, err)
	assert.Equal(t, rec("a", "1", "b", "3", "c", "4"), got)
}

func TestDB_UpdateMissingKeyInserts(t *testing.T) {
	db := New(store.NewMemStore())

	require.NoError(t, db.Update("k2", rec("x", "9")))

	got, err := db.Read("k2", nil)
	require.NoError(t, err)
	assert.Equal(t, rec("x", "9"), got)
}

func TestDB_UpdateFailedPutKeepsOldValue(t *testing.T) {
	fs := &failingStore{Store: store.NewMemStore()}
	db := New(fs)
	require.NoError(t, db.Insert("k", rec("a", "1")))

	fs.failPut = errors.New("disk full")
	err := db.Update("k", rec("a", "2"))
	require.Error(t, err)
	assert.Equal(t, StatusError, StatusOf(err))

	fs.failPut = nil
	got, err := db.Read("k", nil)
	require.NoError(t, err)
	assert.Equal(t, rec("a", "1"), got)
}

func TestDB_UpdateMalformedStoredValueWritesNothing(t *testing.T) {
	mem := store.NewMemStore()
	bad := []byte{0x00, 0x00, 0x00, 0x09, 'x'}
	require.NoError(t, mem.Put([]byte("k"), bad))

	db := New(mem)
	err := db.Update("k", rec("a", "1"))
	assert.True(t, errors.Is(err, codec.ErrMalformed), "got %v", err)

	raw, err := mem.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, bad, raw)
}

func TestDB_Delete(t *testing.T) {
	db := New(store.NewMemStore())
	require.NoError(t, db.Insert("k", rec("a", "1")))
	require.NoError(t, db.Delete("k"))

	_, err := db.Read("k", nil)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))
}

func TestDB_Scan(t *testing.T) {
	db := New(store.NewMemStore(), WithScanWorkers(4))
	r1 := rec("a", "1")
	r2 := rec("b", "2", "c", "3")
	require.NoError(t, db.Insert("user1", r1))
	require.NoError(t, db.Insert("user2", r2))

	got, err := db.Scan("user1", 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []codec.Record{r1, r2}, got)

	got, err = db.Scan("user1", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []codec.Record{r1}, got)

	got, err = db.Scan("", 10, codec.NewFieldFilter("c"))
	require.NoError(t, err)
	assert.Equal(t, []codec.Record{{}, rec("c", "3")}, got)

	_, err = db.Scan("user3", 10, nil)
	assert.True(t, errors.Is(err, store.ErrKeyNotFound))
}

func TestDB_ScanManyRecordsInKeyOrder(t *testing.T) {
	db := New(store.NewMemStore())
	for i := 0; i < 500; i++ {
		require.NoError(t, db.Insert(fmt.Sprintf("user%04d", i), rec("id", fmt.Sprint(i))))
	}

	got, err := db.Scan("user0100", 300, nil)
	require.NoError(t, err)
	require.Len(t, got, 300)
	for i, r := range got {
		assert.Equal(t, fmt.Sprint(100+i), string(r["id"]))
	}
}

func TestDB_ScanMalformedRecordFailsWholeScan(t *testing.T) {
	mem := store.NewMemStore()
	db := New(mem)
	require.NoError(t, db.Insert("a", rec("f", "1")))
	require.NoError(t, mem.Put([]byte("b"), []byte{0x00, 0x00}))
	require.NoError(t, db.Insert("c", rec("f", "3")))

	records, err := db.Scan("a", 3, nil)
	assert.Nil(t, records)

	var sliceErr *scan.SliceError
	require.True(t, errors.As(err, &sliceErr), "got %v", err)
	assert.Equal(t, 1, sliceErr.Index)
}

func TestDB_Validation(t *testing.T) {
	db := New(store.NewMemStore())

	assert.Equal(t, store.ErrInvalidKey, db.Insert("", rec("a", "1")))
	assert.Equal(t, store.ErrInvalidKey, db.Update("", rec("a", "1")))
	assert.Equal(t, store.ErrInvalidKey, db.Delete(""))
	_, err := db.Read("", nil)
	assert.Equal(t, store.ErrInvalidKey, err)

	_, err = db.Scan("a", 0, nil)
	assert.Equal(t, ErrInvalidCount, err)
}

func TestDB_ReportsToObserver(t *testing.T) {
	obs := &recordingObserver{}
	db := New(store.NewMemStore(), WithObserver(obs))

	require.NoError(t, db.Insert("k", rec("a", "1")))
	_, _ = db.Read("missing", nil)
	_, _ = db.Scan("k", -1, nil)

	assert.Equal(t, []opRecord{
		{"insert", true},
		{"read", true},
		{"scan", false},
	}, obs.ops)
}

func TestDB_CloseClosesStore(t *testing.T) {
	mem := store.NewMemStore()
	db := New(mem)
	require.NoError(t, db.Close())

	_, err := mem.Get([]byte("k"))
	assert.Equal(t, store.ErrClosed, err)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusOK},
		{"not found", store.ErrKeyNotFound, StatusNotFound},
		{"wrapped not found", fmt.Errorf("read: %w", store.ErrKeyNotFound), StatusNotFound},
		{"store error", &store.OpError{Op: "get", Err: errors.New("io")}, StatusError},
		{"decode error", &codec.DecodeError{Part: "key"}, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
	assert.Equal(t, "NOT_FOUND", StatusNotFound.String())
}

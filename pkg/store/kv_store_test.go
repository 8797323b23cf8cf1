package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openKV(t *testing.T, dir string) *KVStore {
	t.Helper()
	kv, err := NewKVStore(KVStoreConfig{DataDir: dir, IndexOrder: 4})
	require.NoError(t, err)
	_, err = kv.Open()
	require.NoError(t, err)
	return kv
}

func TestKVStore_NotOpen(t *testing.T) {
	kv, err := NewKVStore(KVStoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)

	_, err = kv.Get([]byte("k"))
	assert.Equal(t, ErrNotOpen, err)
	assert.Equal(t, ErrNotOpen, kv.Put([]byte("k"), []byte("v")))
	assert.NoError(t, kv.Close())
}

func TestKVStore_ReopenRebuildsIndexes(t *testing.T) {
	dir := t.TempDir()
	kv := openKV(t, dir)

	for i := 0; i < 50; i++ {
		require.NoError(t, kv.Put([]byte(fmt.Sprintf("user%03d", i)), []byte(fmt.Sprintf("v%d", i))))
	}
	for i := 0; i < 50; i += 2 {
		require.NoError(t, kv.Delete([]byte(fmt.Sprintf("user%03d", i))))
	}
	require.NoError(t, kv.Put([]byte("user001"), []byte("rewritten")))
	require.NoError(t, kv.Close())

	kv = openKV(t, dir)
	defer kv.Close()

	stats := kv.Stats()
	assert.Equal(t, 25, stats.Keys)
	assert.Greater(t, stats.DataSize, int64(0))

	got, err := kv.Get([]byte("user001"))
	require.NoError(t, err)
	assert.Equal(t, "rewritten", string(got))

	res, err := kv.Scan([]byte("user000"), 3)
	require.NoError(t, err)
	require.Equal(t, 3, res.Len())
	assert.Equal(t, "rewritten", string(res.Value(0)))
	assert.Equal(t, "v3", string(res.Value(1)))
	assert.Equal(t, "v5", string(res.Value(2)))
}

func TestKVStore_RecoveryTruncatesCorruptTail(t *testing.T) {
	dir := t.TempDir()
	kv := openKV(t, dir)
	require.NoError(t, kv.Put([]byte("a"), []byte("1")))
	require.NoError(t, kv.Put([]byte("b"), []byte("2")))
	goodSize := kv.Stats().DataSize
	require.NoError(t, kv.Close())

	dataFile := filepath.Join(dir, "active.data")
	f, err := os.OpenFile(dataFile, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	kv, err = NewKVStore(KVStoreConfig{DataDir: dir})
	require.NoError(t, err)
	recovery, err := kv.Open()
	require.NoError(t, err)
	defer kv.Close()

	assert.Equal(t, int64(2), recovery.RecordsValidated)
	assert.Equal(t, int64(1), recovery.RecordsTruncated)
	assert.Equal(t, goodSize+7, recovery.FileSizeBefore)
	assert.Equal(t, goodSize, recovery.FileSizeAfter)

	// New writes land after the last good entry
	require.NoError(t, kv.Put([]byte("c"), []byte("3")))
	for k, want := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		got, err := kv.Get([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestKVStore_RecoveryOfFullyCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "active.data"), make([]byte, 30), 0600))

	kv, err := NewKVStore(KVStoreConfig{DataDir: dir})
	require.NoError(t, err)
	recovery, err := kv.Open()
	require.NoError(t, err)
	defer kv.Close()

	assert.Equal(t, int64(0), recovery.FileSizeAfter)
	assert.Equal(t, 0, kv.Stats().Keys)

	_, err = kv.Scan(nil, 10)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestKVStore_RecoveryOfOversizedHeader(t *testing.T) {
	dir := t.TempDir()
	header := make([]byte, entryHeaderSize)
	binary.LittleEndian.PutUint32(header[4:], 0xFFFFFFF0)
	binary.LittleEndian.PutUint32(header[8:], 0xFFFFFFF0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "active.data"), header, 0600))

	kv, err := NewKVStore(KVStoreConfig{DataDir: dir})
	require.NoError(t, err)
	recovery, err := kv.Open()
	require.NoError(t, err)
	defer kv.Close()

	assert.Equal(t, int64(entryHeaderSize), recovery.FileSizeBefore)
	assert.Equal(t, int64(0), recovery.FileSizeAfter)
	assert.Equal(t, int64(1), recovery.RecordsTruncated)

	info, err := os.Stat(filepath.Join(dir, "active.data"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestKVStore_DeleteThenPutEmptyValue(t *testing.T) {
	dir := t.TempDir()
	kv := openKV(t, dir)

	require.NoError(t, kv.Put([]byte("k"), []byte("v")))
	require.NoError(t, kv.Delete([]byte("k")))
	require.NoError(t, kv.Put([]byte("k"), nil))
	require.NoError(t, kv.Close())

	kv = openKV(t, dir)
	defer kv.Close()

	got, err := kv.Get([]byte("k"))
	require.NoError(t, err, "an empty value must not read back as a deletion")
	assert.Empty(t, got)
}

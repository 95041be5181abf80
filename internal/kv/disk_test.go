package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiskEngine(t *testing.T) Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.log")
	eng, err := NewDiskEngine(path, DiskEngineOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestDiskEngine(t *testing.T) {
	t.Run("point ops", func(t *testing.T) { testPointOps(t, newTestDiskEngine) })
	t.Run("scan", func(t *testing.T) { testScan(t, newTestDiskEngine) })
	t.Run("scan prefix", func(t *testing.T) { testScanPrefix(t, newTestDiskEngine) })
}

func TestDiskEngineReopenRebuildsKeydir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.log")

	eng, err := NewDiskEngine(path, DiskEngineOptions{})
	require.NoError(t, err)
	require.NoError(t, eng.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, eng.Set([]byte("k2"), []byte("v2")))
	require.NoError(t, eng.Delete([]byte("k1")))
	require.NoError(t, eng.Close())

	eng2, err := NewDiskEngine(path, DiskEngineOptions{})
	require.NoError(t, err)
	defer eng2.Close()

	_, ok, err := eng2.Get([]byte("k1"))
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err := eng2.Get([]byte("k2"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", string(v))
}

func TestDiskEngineLockRejectsSecondOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.log")

	eng, err := NewDiskEngine(path, DiskEngineOptions{})
	require.NoError(t, err)
	defer eng.Close()

	_, err = NewDiskEngine(path, DiskEngineOptions{})
	assert.Error(t, err)
}

// TestDiskEngineCompactIdempotence verifies invariant #6: the key/value set
// observable after compaction equals the set observable before, including
// across a reopen of the compacted file.
func TestDiskEngineCompactIdempotence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.log")

	eng, err := NewDiskEngine(path, DiskEngineOptions{})
	require.NoError(t, err)

	require.NoError(t, eng.Set([]byte("key1"), []byte("value")))
	require.NoError(t, eng.Set([]byte("key2"), []byte("value")))
	require.NoError(t, eng.Set([]byte("key3"), []byte("value")))
	require.NoError(t, eng.Delete([]byte("key1")))
	require.NoError(t, eng.Delete([]byte("key2")))
	require.NoError(t, eng.Set([]byte("aa"), []byte("value1")))
	require.NoError(t, eng.Set([]byte("aa"), []byte("value2")))
	require.NoError(t, eng.Set([]byte("aa"), []byte("value3")))
	require.NoError(t, eng.Set([]byte("bb"), []byte("value4")))
	require.NoError(t, eng.Set([]byte("bb"), []byte("value5")))

	before, err := collectAll(eng.Scan(RangeAll()))
	require.NoError(t, err)

	require.NoError(t, eng.Compact())

	after, err := collectAll(eng.Scan(RangeAll()))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, [][]byte{[]byte("aa"), []byte("bb"), []byte("key3")}, keysOf(after))

	require.NoError(t, eng.Close())

	eng2, err := NewDiskEngine(path, DiskEngineOptions{})
	require.NoError(t, err)
	defer eng2.Close()
	reopened, err := collectAll(eng2.Scan(RangeAll()))
	require.NoError(t, err)
	assert.Equal(t, after, reopened)
}

func keysOf(items []Item) [][]byte {
	out := make([][]byte, len(items))
	for i, it := range items {
		out[i] = it.Key
	}
	return out
}

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineFactory produces a fresh Engine for each subtest so the shared
// contract tests below run identically against MemoryEngine and DiskEngine,
// mirroring the original source's test_point_opt/test_scan/test_scan_prefix
// pattern that parameterizes over both engines.
type engineFactory func(t *testing.T) Engine

func testPointOps(t *testing.T, newEngine engineFactory) {
	eng := newEngine(t)

	_, ok, err := eng.Get([]byte("not exist"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, eng.Set([]byte("aa"), []byte{1, 2, 3, 4}))
	v, ok, err := eng.Get([]byte("aa"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, v)

	require.NoError(t, eng.Set([]byte("aa"), []byte{5, 6, 7, 8}))
	v, ok, err = eng.Get([]byte("aa"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{5, 6, 7, 8}, v)

	require.NoError(t, eng.Delete([]byte("aa")))
	_, ok, err = eng.Get([]byte("aa"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, eng.Set([]byte(""), []byte{}))
	v, ok, err = eng.Get([]byte(""))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, v)
}

func testScan(t *testing.T, newEngine engineFactory) {
	eng := newEngine(t)
	for _, kv := range []struct{ k, v string }{
		{"nnaes", "value1"}, {"amhue", "value2"}, {"meeae", "value3"},
		{"uujeh", "value4"}, {"anehe", "value5"},
	} {
		require.NoError(t, eng.Set([]byte(kv.k), []byte(kv.v)))
	}

	it := eng.Scan(Range{Start: Bound{Key: []byte("a"), Kind: Included}, End: Bound{Key: []byte("e"), Kind: Excluded}})
	item, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "amhue", string(item.Key))

	item, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "anehe", string(item.Key))

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	it2 := eng.Scan(Range{Start: Bound{Key: []byte("b"), Kind: Included}, End: Bound{Key: []byte("z"), Kind: Excluded}})
	item, ok, err = it2.NextBack()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "uujeh", string(item.Key))

	item, ok, err = it2.NextBack()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nnaes", string(item.Key))

	item, ok, err = it2.NextBack()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "meeae", string(item.Key))
}

func testScanPrefix(t *testing.T, newEngine engineFactory) {
	eng := newEngine(t)
	for _, kv := range []struct{ k, v string }{
		{"ccnaes", "value1"}, {"camhue", "value2"}, {"deeae", "value3"},
		{"eeujeh", "value4"}, {"canehe", "value5"}, {"aanehe", "value6"},
	} {
		require.NoError(t, eng.Set([]byte(kv.k), []byte(kv.v)))
	}

	it := eng.ScanPrefix([]byte("ca"))
	item, ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "camhue", string(item.Key))

	item, ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "canehe", string(item.Key))

	_, ok, err = it.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryEngine(t *testing.T) {
	newEngine := func(t *testing.T) Engine { return NewMemoryEngine() }
	t.Run("point ops", func(t *testing.T) { testPointOps(t, newEngine) })
	t.Run("scan", func(t *testing.T) { testScan(t, newEngine) })
	t.Run("scan prefix", func(t *testing.T) { testScanPrefix(t, newEngine) })
}

func TestNextAfter(t *testing.T) {
	assert.Equal(t, []byte("cb"), nextAfter([]byte("ca")))
	assert.Nil(t, nextAfter([]byte{0xFF, 0xFF}))
	assert.Equal(t, []byte{0x01}, nextAfter([]byte{0x00, 0xFF}))
}

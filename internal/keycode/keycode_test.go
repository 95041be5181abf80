package keycode

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encBytes(v []byte) []byte { return NewEncoder().Bytes(v).Finish() }
func encString(v string) []byte { return NewEncoder().String(v).Finish() }
func encUint64(v uint64) []byte { return NewEncoder().Uint64(v).Finish() }

// TestByteStringEscapeRoundTrip covers invariant #2: a value containing 0x00
// round-trips and sorts as its un-escaped form.
func TestByteStringEscapeRoundTrip(t *testing.T) {
	values := [][]byte{
		{},
		{0x00},
		{0x00, 0x00},
		{0x01, 0x00, 0x02},
		[]byte("abc"),
		{0xFF, 0x00, 0xFF},
	}
	for _, v := range values {
		encoded := encBytes(v)
		dec := NewDecoder(encoded)
		got, err := dec.Bytes()
		require.NoError(t, err)
		assert.True(t, dec.Done())
		assert.Equal(t, v, got)
	}
}

// TestByteStringOrderPreservation covers invariant #1 applied to raw byte
// strings containing embedded zero bytes: logical (unescaped) order must
// equal the encoded byte order.
func TestByteStringOrderPreservation(t *testing.T) {
	logical := [][]byte{
		{},
		{0x00},
		{0x00, 0x00},
		{0x00, 0x01},
		{0x01},
		{0x01, 0x00},
		{0xFF},
	}
	sorted := make([][]byte, len(logical))
	copy(sorted, logical)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })
	assert.Equal(t, logical, sorted, "test fixture must already be in logical order")

	encoded := make([][]byte, len(logical))
	for i, v := range logical {
		encoded[i] = encBytes(v)
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0,
			"encode(%v) should sort before encode(%v)", logical[i-1], logical[i])
	}
}

func TestUint64OrderPreservation(t *testing.T) {
	values := []uint64{0, 1, 2, 255, 256, 1 << 32, ^uint64(0)}
	for i := 1; i < len(values); i++ {
		a, b := encUint64(values[i-1]), encUint64(values[i])
		assert.True(t, bytes.Compare(a, b) < 0)
	}
}

func TestUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1 << 40, ^uint64(0)} {
		dec := NewDecoder(encUint64(v))
		got, err := dec.Uint64()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.True(t, dec.Done())
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, v := range []string{"", "hello", "with\x00null", "unicode: é中"} {
		dec := NewDecoder(encString(v))
		got, err := dec.String()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestTagOrderingBetweenVariants(t *testing.T) {
	variantA := NewEncoder().Tag(0).Finish()
	variantB := NewEncoder().Tag(1).Finish()
	assert.True(t, bytes.Compare(variantA, variantB) < 0)
}

func TestTupleConcatenationPreservesOrder(t *testing.T) {
	k1 := NewEncoder().Tag(3).String("apple").Uint64(5).Finish()
	k2 := NewEncoder().Tag(3).String("apple").Uint64(6).Finish()
	k3 := NewEncoder().Tag(3).String("banana").Uint64(0).Finish()
	assert.True(t, bytes.Compare(k1, k2) < 0)
	assert.True(t, bytes.Compare(k2, k3) < 0)
}

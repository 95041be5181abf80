// Package keycode implements the order-preserving key encoding described in
// spec §4.2: the byte order of an encoded key must equal the logical order of
// the value it represents, so the kv engines' plain lexicographic scans can
// serve as ordered scans over typed keys.
//
// Callers build a key by appending one field at a time with an Encoder, and
// take it apart the same way with a Decoder. There is no reflection-driven
// serializer (the original Rust source hangs this off a custom serde
// Serializer/Deserializer pair); in Go, explicit field-by-field calls at each
// key enum's construction site are both simpler and exactly as order-correct.
package keycode

import (
	"encoding/binary"

	"github.com/tuplebase/tuplebase/internal/errs"
)

// Encoder accumulates the encoded bytes of one key, field by field, in
// declaration order — tuples and tagged unions are just concatenation.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Finish returns the accumulated encoding.
func (e *Encoder) Finish() []byte { return e.buf }

// Tag appends a one-byte variant tag. Tag ordering defines the ordering
// between variants of a tagged union, per spec §4.2.
func (e *Encoder) Tag(tag byte) *Encoder {
	e.buf = append(e.buf, tag)
	return e
}

// Uint64 appends v as 8 big-endian bytes.
func (e *Encoder) Uint64(v uint64) *Encoder {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
	return e
}

// Int64 appends v as 8 big-endian bytes of its bit pattern. This is the
// "broken ordering for negatives" encoding spec §4.2/§9 calls for: two's
// complement big-endian bytes sort all negative values after all positive
// ones, because the sign bit is the most significant bit. Primary keys in
// practice are non-negative, so this is preserved rather than "fixed" with a
// sign flip, matching the original source.
func (e *Encoder) Int64(v int64) *Encoder {
	return e.Uint64(uint64(v))
}

// Bool appends a single 0x00 or 0x01 byte.
func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
	return e
}

// Bytes appends v using the escape encoding from spec §4.2: every 0x00 byte
// becomes 0x00 0xFF, and the whole value is terminated by 0x00 0x00. This
// makes byte-string encoding self-delimiting and order-preserving for
// arbitrary inlined values, including further encoded sub-keys.
func (e *Encoder) Bytes(v []byte) *Encoder {
	for _, b := range v {
		if b == 0x00 {
			e.buf = append(e.buf, 0x00, 0xFF)
		} else {
			e.buf = append(e.buf, b)
		}
	}
	e.buf = append(e.buf, 0x00, 0x00)
	return e
}

// String appends v as a byte string of its UTF-8 encoding.
func (e *Encoder) String(v string) *Encoder {
	return e.Bytes([]byte(v))
}

// Decoder consumes an encoded key field by field, in the same order it was
// built.
type Decoder struct {
	buf []byte
}

// NewDecoder wraps buf for sequential decoding.
func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

// Remaining returns the bytes not yet consumed.
func (d *Decoder) Remaining() []byte { return d.buf }

// Done reports whether every byte has been consumed.
func (d *Decoder) Done() bool { return len(d.buf) == 0 }

// Tag consumes and returns a one-byte variant tag.
func (d *Decoder) Tag() (byte, error) {
	if len(d.buf) < 1 {
		return 0, errs.New(errs.Decode, "key codec: expected variant tag, ran out of input")
	}
	tag := d.buf[0]
	d.buf = d.buf[1:]
	return tag, nil
}

// Uint64 consumes 8 big-endian bytes as a uint64.
func (d *Decoder) Uint64() (uint64, error) {
	if len(d.buf) < 8 {
		return 0, errs.New(errs.Decode, "key codec: expected 8 bytes for uint64, got %d", len(d.buf))
	}
	v := binary.BigEndian.Uint64(d.buf[:8])
	d.buf = d.buf[8:]
	return v, nil
}

// Int64 consumes 8 big-endian bytes as the bit pattern of an int64, the
// inverse of Encoder.Int64.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// Bool consumes a single 0x00/0x01 byte.
func (d *Decoder) Bool() (bool, error) {
	if len(d.buf) < 1 {
		return false, errs.New(errs.Decode, "key codec: expected 1 byte for bool, got 0")
	}
	v := d.buf[0] != 0
	d.buf = d.buf[1:]
	return v, nil
}

// Bytes consumes an escape-encoded byte string up to and including its
// 0x00 0x00 terminator, returning the un-escaped value.
func (d *Decoder) Bytes() ([]byte, error) {
	var out []byte
	i := 0
	for {
		if i >= len(d.buf) {
			return nil, errs.New(errs.Decode, "key codec: unterminated byte string")
		}
		if d.buf[i] != 0x00 {
			out = append(out, d.buf[i])
			i++
			continue
		}
		// d.buf[i] == 0x00: look at the next byte to disambiguate escape
		// from terminator.
		if i+1 >= len(d.buf) {
			return nil, errs.New(errs.Decode, "key codec: truncated escape sequence")
		}
		switch d.buf[i+1] {
		case 0x00:
			d.buf = d.buf[i+2:]
			return out, nil
		case 0xFF:
			out = append(out, 0x00)
			i += 2
		default:
			return nil, errs.New(errs.Decode, "key codec: invalid escape sequence 0x00 0x%02x", d.buf[i+1])
		}
	}
}

// String consumes a byte string and interprets it as UTF-8.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

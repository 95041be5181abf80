package mvcc

import (
	"encoding/binary"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/keycode"
)

// Key variant tags, ordered so that their byte encoding sorts the way
// tuplebase's MVCC namespace wants: a single tag byte keeps each variant's
// entries clustered together under a prefix scan.
const (
	tagNextVersion byte = iota
	tagTxnActive
	tagTxnWrite
	tagVersion
)

func encodeNextVersionKey() []byte {
	return keycode.NewEncoder().Tag(tagNextVersion).Finish()
}

func encodeTxnActiveKey(version uint64) []byte {
	return keycode.NewEncoder().Tag(tagTxnActive).Uint64(version).Finish()
}

func txnActivePrefix() []byte {
	return []byte{tagTxnActive}
}

func decodeTxnActiveKey(key []byte) (uint64, error) {
	dec := keycode.NewDecoder(key)
	if _, err := dec.Tag(); err != nil {
		return 0, err
	}
	return dec.Uint64()
}

func encodeTxnWriteKey(version uint64, rawKey []byte) []byte {
	return keycode.NewEncoder().Tag(tagTxnWrite).Uint64(version).Bytes(rawKey).Finish()
}

func txnWritePrefix(version uint64) []byte {
	return keycode.NewEncoder().Tag(tagTxnWrite).Uint64(version).Finish()
}

func decodeTxnWriteKey(key []byte) (rawKey []byte, err error) {
	dec := keycode.NewDecoder(key)
	if _, err := dec.Tag(); err != nil {
		return nil, err
	}
	if _, err := dec.Uint64(); err != nil {
		return nil, err
	}
	return dec.Bytes()
}

func encodeVersionKey(rawKey []byte, version uint64) []byte {
	return keycode.NewEncoder().Tag(tagVersion).Bytes(rawKey).Uint64(version).Finish()
}

// versionKeyRawPrefix returns the encoded-key prefix shared by every
// Version(rawKey, *) entry: the tag, the escaped raw key, but with the
// Bytes encoding's 0x00 0x00 terminator stripped off so the prefix matches
// regardless of which version byte suffix follows.
func versionKeyRawPrefix(rawKey []byte) []byte {
	full := keycode.NewEncoder().Tag(tagVersion).Bytes(rawKey).Finish()
	return full[:len(full)-2]
}

func decodeVersionKey(key []byte) (rawKey []byte, version uint64, err error) {
	dec := keycode.NewDecoder(key)
	if _, err := dec.Tag(); err != nil {
		return nil, 0, err
	}
	rawKey, err = dec.Bytes()
	if err != nil {
		return nil, 0, err
	}
	version, err = dec.Uint64()
	if err != nil {
		return nil, 0, err
	}
	return rawKey, version, nil
}

// encodeUint64 / decodeUint64 encode the NextVersion counter's stored value.
// This is plain big-endian, not the order-preserving key codec: it is a
// value, never compared byte-wise against another key.
func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errs.New(errs.Decode, "mvcc: expected 8-byte counter, got %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// valueTombstone and valuePresent tag the payload stored at a Version key,
// encoding Option<value>: a deleted key and an absent key both need to be
// distinguishable from "not written at this version at all".
const (
	valueTombstone byte = 0
	valuePresent   byte = 1
)

func encodeVersionValue(value []byte, tombstone bool) []byte {
	if tombstone {
		return []byte{valueTombstone}
	}
	out := make([]byte, 0, 1+len(value))
	out = append(out, valuePresent)
	return append(out, value...)
}

func decodeVersionValue(b []byte) (value []byte, tombstone bool, err error) {
	if len(b) == 0 {
		return nil, false, errs.New(errs.Decode, "mvcc: empty version payload")
	}
	switch b[0] {
	case valueTombstone:
		return nil, true, nil
	case valuePresent:
		return b[1:], false, nil
	default:
		return nil, false, errs.New(errs.Decode, "mvcc: unknown version payload tag %d", b[0])
	}
}

// Package kv implements the ordered byte-to-byte key/value engines that back
// tuplebase's MVCC layer. It defines a single Engine contract and two
// implementations — an in-memory balanced tree and a bitcask-style append-only
// log on disk — so the rest of the database never has to know which one it is
// talking to.
package kv

import "bytes"

// BoundKind distinguishes the three ways a scan range can bound one side.
type BoundKind int

const (
	// Unbounded means the range extends indefinitely on this side.
	Unbounded BoundKind = iota
	// Included means the bound key itself is part of the range.
	Included
	// Excluded means the range stops just short of the bound key.
	Excluded
)

// Bound is one edge of a Range.
type Bound struct {
	Key  []byte
	Kind BoundKind
}

// Range describes a scan window over the engine's key space. A zero Range
// (both bounds Unbounded) scans every key.
type Range struct {
	Start Bound
	End   Bound
}

// RangeAll returns a Range spanning every key in the engine.
func RangeAll() Range {
	return Range{}
}

// PrefixRange builds the Range equivalent of Engine.ScanPrefix(prefix):
// [prefix, nextAfter(prefix)).
func PrefixRange(prefix []byte) Range {
	end := nextAfter(prefix)
	if end == nil {
		return Range{Start: Bound{Key: prefix, Kind: Included}}
	}
	return Range{
		Start: Bound{Key: prefix, Kind: Included},
		End:   Bound{Key: end, Kind: Excluded},
	}
}

// nextAfter increments the last byte of prefix, carrying and truncating on
// overflow, producing the smallest key that is not prefixed by prefix. It
// returns nil if prefix consists entirely of 0xFF bytes (or is empty), in
// which case there is no finite upper bound.
func nextAfter(prefix []byte) []byte {
	out := make([]byte, len(prefix))
	copy(out, prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// contains reports whether key falls within r.
func (r Range) contains(key []byte) bool {
	switch r.Start.Kind {
	case Included:
		if bytes.Compare(key, r.Start.Key) < 0 {
			return false
		}
	case Excluded:
		if bytes.Compare(key, r.Start.Key) <= 0 {
			return false
		}
	}
	switch r.End.Kind {
	case Included:
		if bytes.Compare(key, r.End.Key) > 0 {
			return false
		}
	case Excluded:
		if bytes.Compare(key, r.End.Key) >= 0 {
			return false
		}
	}
	return true
}

// Item is one key/value pair returned by an Iterator.
type Item struct {
	Key   []byte
	Value []byte
}

// Iterator walks a Range of an Engine's key space in lexicographic key order.
// It is double-ended: Next consumes from the low end, NextBack from the high
// end, mirroring the Rust source's DoubleEndedIterator-backed scans (spec
// §4.1's requirement that scans "support both directions").
type Iterator interface {
	// Next returns the next item in ascending order, or ok=false when the
	// range (from this end) is exhausted.
	Next() (item Item, ok bool, err error)
	// NextBack returns the next item in descending order, or ok=false when
	// the range (from this end) is exhausted.
	NextBack() (item Item, ok bool, err error)
}

// Engine is the ordered byte-map contract shared by MemoryEngine and
// DiskEngine. All methods must be safe to call concurrently with each other;
// implementations provide their own internal synchronization.
type Engine interface {
	// Set upserts key to value.
	Set(key, value []byte) error
	// Get returns the value for key and true, or false if key is absent.
	Get(key []byte) ([]byte, bool, error)
	// Delete removes key if present; it is a no-op otherwise.
	Delete(key []byte) error
	// Scan returns an iterator over every key in r, in key order.
	Scan(r Range) Iterator
	// ScanPrefix returns an iterator over every key sharing prefix p.
	ScanPrefix(p []byte) Iterator
	// Close releases any resources (file handles, locks) held by the engine.
	Close() error
}

// collectAll drains an Iterator into a slice, forward order. Used by callers
// (and tests) that want a materialized view rather than pull-by-pull access.
func collectAll(it Iterator) ([]Item, error) {
	var items []Item
	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}

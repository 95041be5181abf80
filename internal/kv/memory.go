package kv

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

// entry is the btree element: a key/value pair ordered by Key.
type entry struct {
	Key   []byte
	Value []byte
}

func entryLess(a, b entry) bool {
	return bytes.Compare(a.Key, b.Key) < 0
}

// MemoryEngine is the in-memory Engine implementation required by spec §4.1
// ("a balanced ordered map"). It is backed by github.com/google/btree, giving
// O(log n) point operations and cheap ordered range iteration without hand
//-rolling a tree. Safe for concurrent use via an internal RWMutex, matching
// the teacher's MemoryStore locking discipline.
type MemoryEngine struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

// NewMemoryEngine returns an empty MemoryEngine ready for use.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{tree: btree.NewG(32, entryLess)}
}

// Set implements Engine.
func (m *MemoryEngine) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	m.tree.ReplaceOrInsert(entry{Key: k, Value: v})
	return nil
}

// Get implements Engine.
func (m *MemoryEngine) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.tree.Get(entry{Key: key})
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), item.Value...), true, nil
}

// Delete implements Engine.
func (m *MemoryEngine) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tree.Delete(entry{Key: key})
	return nil
}

// Scan implements Engine by materializing the matching range under the read
// lock, then handing back a cursor over the snapshot. google/btree's Ascend
// holds no lock of its own, so we copy while we still hold ours.
func (m *MemoryEngine) Scan(r Range) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []Item
	visit := func(e entry) bool {
		if r.contains(e.Key) {
			items = append(items, Item{Key: e.Key, Value: e.Value})
		}
		return true
	}
	m.tree.Ascend(visit)
	return &sliceIterator{items: items}
}

// ScanPrefix implements Engine.
func (m *MemoryEngine) ScanPrefix(p []byte) Iterator {
	return m.Scan(PrefixRange(p))
}

// Close implements Engine. MemoryEngine holds no external resources.
func (m *MemoryEngine) Close() error { return nil }

// sliceIterator adapts a materialized, ascending-ordered []Item into the
// double-ended Iterator contract by tracking independent head/tail cursors.
type sliceIterator struct {
	items []Item
	lo    int
	hi    int
	init  bool
}

func (s *sliceIterator) ensureInit() {
	if !s.init {
		s.hi = len(s.items)
		s.init = true
	}
}

func (s *sliceIterator) Next() (Item, bool, error) {
	s.ensureInit()
	if s.lo >= s.hi {
		return Item{}, false, nil
	}
	item := s.items[s.lo]
	s.lo++
	return item, true, nil
}

func (s *sliceIterator) NextBack() (Item, bool, error) {
	s.ensureInit()
	if s.lo >= s.hi {
		return Item{}, false, nil
	}
	s.hi--
	return s.items[s.hi], true, nil
}

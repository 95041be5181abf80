// Package mvcc implements snapshot-isolation transactions over an ordered
// byte store (internal/kv.Engine), per spec §4.3. It wraps the untyped
// engine in a versioned key namespace — NextVersion, TxnActive, TxnWrite,
// Version — so that SQL-level transactions each see a consistent point-in-time
// snapshot of the key space, with write-write conflicts detected rather than
// silently lost.
package mvcc

import (
	"bytes"
	"math"
	"sync"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/kv"
)

// Mvcc owns the underlying Engine and hands out transactions. All mutating
// and most reading operations of every transaction take the same engine
// lock, so the whole MVCC namespace observes one linear order (spec §4.3,
// §6's "ordering guarantees").
type Mvcc struct {
	mu     sync.Mutex
	engine kv.Engine
}

// New wraps engine as an MVCC store. engine must not be touched by any other
// caller for as long as the returned Mvcc is in use — including calling
// engine.Compact() directly, which does not understand MVCC versioning (see
// DiskEngine.Compact's doc comment).
func New(engine kv.Engine) *Mvcc {
	return &Mvcc{engine: engine}
}

// Begin starts a new snapshot-isolated transaction. Per spec §4.3: read
// NextVersion (default 1), write back NextVersion+1, capture every version
// currently in TxnActive(*) as this transaction's snapshot set, then mark
// this transaction itself active.
func (m *Mvcc) Begin() (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version, err := m.readNextVersionLocked()
	if err != nil {
		return nil, err
	}
	if err := m.engine.Set(encodeNextVersionKey(), encodeUint64(version+1)); err != nil {
		return nil, errs.Wrap(errs.Io, err, "mvcc: advance NextVersion")
	}

	active, err := m.activeVersionsLocked()
	if err != nil {
		return nil, err
	}

	if err := m.engine.Set(encodeTxnActiveKey(version), nil); err != nil {
		return nil, errs.Wrap(errs.Io, err, "mvcc: mark txn %d active", version)
	}

	return &Transaction{
		mvcc:    m,
		Version: version,
		active:  active,
	}, nil
}

func (m *Mvcc) readNextVersionLocked() (uint64, error) {
	b, ok, err := m.engine.Get(encodeNextVersionKey())
	if err != nil {
		return 0, errs.Wrap(errs.Io, err, "mvcc: read NextVersion")
	}
	if !ok {
		return 1, nil
	}
	return decodeUint64(b)
}

func (m *Mvcc) activeVersionsLocked() (map[uint64]bool, error) {
	active := make(map[uint64]bool)
	it := m.engine.ScanPrefix(txnActivePrefix())
	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, errs.Wrap(errs.Io, err, "mvcc: scan TxnActive")
		}
		if !ok {
			break
		}
		v, err := decodeTxnActiveKey(item.Key)
		if err != nil {
			return nil, err
		}
		active[v] = true
	}
	return active, nil
}

// Transaction is one snapshot-isolated view over the Mvcc store, per
// spec §4.3. The zero value is not usable; obtain one from Mvcc.Begin.
type Transaction struct {
	mvcc    *Mvcc
	Version uint64
	active  map[uint64]bool
	done    bool
}

// isVisible implements the corrected snapshot-isolation predicate from
// spec §4.3: a version is visible to this transaction if it is this
// transaction's own write, invisible if it belongs to another transaction
// that was still active at this transaction's begin, and otherwise visible
// iff it predates this transaction.
func (t *Transaction) isVisible(v uint64) bool {
	if v == t.Version {
		return true
	}
	if t.active[v] {
		return false
	}
	return v < t.Version
}

func (t *Transaction) minActiveOrSelfPlusOne() uint64 {
	min := t.Version + 1
	for v := range t.active {
		if v < min {
			min = v
		}
	}
	return min
}

// Set writes key=value within this transaction, per spec §4.3's write path.
func (t *Transaction) Set(key, value []byte) error {
	return t.write(key, value, false)
}

// Delete writes a tombstone for key within this transaction.
func (t *Transaction) Delete(key []byte) error {
	return t.write(key, nil, true)
}

func (t *Transaction) write(key, value []byte, tombstone bool) error {
	if t.done {
		return errs.New(errs.Internal, "mvcc: transaction %d already committed or rolled back", t.Version)
	}
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	vMin := t.minActiveOrSelfPlusOne()
	scanRange := kv.Range{
		Start: kv.Bound{Key: encodeVersionKey(key, vMin), Kind: kv.Included},
		End:   kv.Bound{Key: encodeVersionKey(key, math.MaxUint64), Kind: kv.Included},
	}
	it := t.mvcc.engine.Scan(scanRange)
	var lastVersion uint64
	var sawAny bool
	for {
		item, ok, err := it.Next()
		if err != nil {
			return errs.Wrap(errs.Io, err, "mvcc: scan versions of key for conflict check")
		}
		if !ok {
			break
		}
		_, v, err := decodeVersionKey(item.Key)
		if err != nil {
			return err
		}
		lastVersion = v
		sawAny = true
	}
	if sawAny && !t.isVisible(lastVersion) {
		return errs.New(errs.WriteConflict, "write conflict on key")
	}

	if err := t.mvcc.engine.Set(encodeTxnWriteKey(t.Version, key), nil); err != nil {
		return errs.Wrap(errs.Io, err, "mvcc: write undo record")
	}
	payload := encodeVersionValue(value, tombstone)
	if err := t.mvcc.engine.Set(encodeVersionKey(key, t.Version), payload); err != nil {
		return errs.Wrap(errs.Io, err, "mvcc: write version")
	}
	return nil
}

// Get returns the value visible to this transaction for key, per spec §4.3's
// point-read path: reverse-scan Version(key, 0..key, self.version) and
// return the first version this transaction can see.
func (t *Transaction) Get(key []byte) ([]byte, bool, error) {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	scanRange := kv.Range{
		Start: kv.Bound{Key: encodeVersionKey(key, 0), Kind: kv.Included},
		End:   kv.Bound{Key: encodeVersionKey(key, t.Version), Kind: kv.Included},
	}
	it := t.mvcc.engine.Scan(scanRange)
	for {
		item, ok, err := it.NextBack()
		if err != nil {
			return nil, false, errs.Wrap(errs.Io, err, "mvcc: reverse-scan key versions")
		}
		if !ok {
			return nil, false, nil
		}
		_, v, err := decodeVersionKey(item.Key)
		if err != nil {
			return nil, false, err
		}
		if !t.isVisible(v) {
			continue
		}
		value, tombstone, err := decodeVersionValue(item.Value)
		if err != nil {
			return nil, false, err
		}
		if tombstone {
			return nil, false, nil
		}
		return value, true, nil
	}
}

// ScanResult is one raw key/value pair visible to a transaction's prefix
// scan, per spec §4.3.
type ScanResult struct {
	Key   []byte
	Value []byte
}

// ScanPrefix returns, in raw-key order, the newest version visible to this
// transaction of every raw key sharing prefix — tombstoned keys omitted.
func (t *Transaction) ScanPrefix(prefix []byte) ([]ScanResult, error) {
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	it := t.mvcc.engine.ScanPrefix(versionKeyRawPrefix(prefix))

	var results []ScanResult
	var curKey []byte
	var curValue []byte
	var curVisible bool
	var curTombstone bool
	haveGroup := false

	flush := func() {
		if haveGroup && curVisible && !curTombstone {
			results = append(results, ScanResult{Key: curKey, Value: curValue})
		}
	}

	for {
		item, ok, err := it.Next()
		if err != nil {
			return nil, errs.Wrap(errs.Io, err, "mvcc: scan prefix")
		}
		if !ok {
			break
		}
		rawKey, version, err := decodeVersionKey(item.Key)
		if err != nil {
			return nil, err
		}
		if !haveGroup || !bytes.Equal(rawKey, curKey) {
			flush()
			curKey = rawKey
			curVisible = false
			curTombstone = false
			curValue = nil
			haveGroup = true
		}
		if !t.isVisible(version) {
			continue
		}
		value, tombstone, err := decodeVersionValue(item.Value)
		if err != nil {
			return nil, err
		}
		curVisible = true
		curTombstone = tombstone
		curValue = value
	}
	flush()

	return results, nil
}

// Commit makes every write this transaction performed permanent: the undo
// log (TxnWrite) is discarded and the transaction is removed from the active
// set. The Version entries themselves are untouched — they are now
// permanent history, per spec §4.3.
func (t *Transaction) Commit() error {
	if t.done {
		return errs.New(errs.Internal, "mvcc: transaction %d already committed or rolled back", t.Version)
	}
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	if err := t.deleteTxnWritesLocked(func([]byte) error { return nil }); err != nil {
		return err
	}
	if err := t.mvcc.engine.Delete(encodeTxnActiveKey(t.Version)); err != nil {
		return errs.Wrap(errs.Io, err, "mvcc: clear txn active marker")
	}
	t.done = true
	return nil
}

// Rollback discards every write this transaction performed: each Version
// entry it wrote is deleted, then its undo log, then its active marker.
func (t *Transaction) Rollback() error {
	if t.done {
		return errs.New(errs.Internal, "mvcc: transaction %d already committed or rolled back", t.Version)
	}
	t.mvcc.mu.Lock()
	defer t.mvcc.mu.Unlock()

	if err := t.deleteTxnWritesLocked(func(rawKey []byte) error {
		return t.mvcc.engine.Delete(encodeVersionKey(rawKey, t.Version))
	}); err != nil {
		return err
	}
	if err := t.mvcc.engine.Delete(encodeTxnActiveKey(t.Version)); err != nil {
		return errs.Wrap(errs.Io, err, "mvcc: clear txn active marker")
	}
	t.done = true
	return nil
}

// deleteTxnWritesLocked walks this transaction's undo log, invoking perKey
// for every raw key it touched, then deletes the undo entries themselves.
// Called with mvcc.mu already held.
func (t *Transaction) deleteTxnWritesLocked(perKey func(rawKey []byte) error) error {
	it := t.mvcc.engine.ScanPrefix(txnWritePrefix(t.Version))
	var keys [][]byte
	for {
		item, ok, err := it.Next()
		if err != nil {
			return errs.Wrap(errs.Io, err, "mvcc: scan TxnWrite undo log")
		}
		if !ok {
			break
		}
		rawKey, err := decodeTxnWriteKey(item.Key)
		if err != nil {
			return err
		}
		keys = append(keys, append([]byte(nil), item.Key...))
		if err := perKey(rawKey); err != nil {
			return err
		}
	}
	for _, k := range keys {
		if err := t.mvcc.engine.Delete(k); err != nil {
			return errs.Wrap(errs.Io, err, "mvcc: delete undo record")
		}
	}
	return nil
}

package kv

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/tuplebase/tuplebase/internal/errs"
)

// logHeaderSize is the fixed 8-byte key_len|value_len header preceding every
// entry, per spec §4.1.
const logHeaderSize = 8

// tombstoneLen is the value_len sentinel written for a deleted key.
const tombstoneLen = -1

// keydirEntry locates a live value within the log file.
type keydirEntry struct {
	offset uint64
	length uint32
}

// DiskEngineOptions configures a DiskEngine. It stands in for the
// configuration-file loading spec.md explicitly puts out of scope (§1) — this
// is just the in-memory knob struct something has to pass to NewDiskEngine.
type DiskEngineOptions struct {
	// Logger receives structured events for open and compact. A nil Logger
	// falls back to zap.NewNop().
	Logger *zap.SugaredLogger
}

// DiskEngine is the bitcask-style append-only log engine described in spec
// §4.1: a sequence of self-delimiting entries on disk, with an in-memory
// KeyDir mapping each live key to the file offset and length of its value.
type DiskEngine struct {
	mu     sync.RWMutex
	path   string
	file   *os.File
	lock   *flock.Flock
	keydir map[string]keydirEntry
	log    *zap.SugaredLogger
}

// NewDiskEngine opens (creating if necessary) the log file at path, acquires
// an exclusive advisory lock on it, and rebuilds the KeyDir by scanning the
// file front to back.
func NewDiskEngine(path string, opts DiskEngineOptions) (*DiskEngine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.Io, err, "create log directory %q", dir)
		}
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errs.Wrap(errs.Io, err, "lock log file %q", path)
	}
	if !locked {
		return nil, errs.New(errs.Io, "log file %q is already locked by another process", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, errs.Wrap(errs.Io, err, "open log file %q", path)
	}

	e := &DiskEngine{
		path: path,
		file: file,
		lock: lock,
		log:  logger,
	}
	keydir, err := e.buildKeydir()
	if err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, err
	}
	e.keydir = keydir
	logger.Infow("disk engine opened", "path", path, "live_keys", len(keydir))
	return e, nil
}

// buildKeydir scans the log file front to back, replaying sets and deletes
// into a fresh KeyDir, per spec §4.1.
func (e *DiskEngine) buildKeydir() (map[string]keydirEntry, error) {
	keydir := make(map[string]keydirEntry)

	info, err := e.file.Stat()
	if err != nil {
		return nil, errs.Wrap(errs.Io, err, "stat log file %q", e.path)
	}
	fileLen := info.Size()

	reader := bufio.NewReader(io.NewSectionReader(e.file, 0, fileLen))
	var offset int64
	for offset < fileLen {
		header := make([]byte, logHeaderSize)
		if _, err := io.ReadFull(reader, header); err != nil {
			return nil, errs.Wrap(errs.Io, err, "read entry header at offset %d", offset)
		}
		keyLen := binary.BigEndian.Uint32(header[:4])
		valueLen := int32(binary.BigEndian.Uint32(header[4:]))

		key := make([]byte, keyLen)
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, errs.Wrap(errs.Io, err, "read entry key at offset %d", offset)
		}

		valueOffset := offset + logHeaderSize + int64(keyLen)
		if valueLen == tombstoneLen {
			delete(keydir, string(key))
			offset = valueOffset
			continue
		}

		if _, err := reader.Discard(int(valueLen)); err != nil {
			return nil, errs.Wrap(errs.Io, err, "skip entry value at offset %d", valueOffset)
		}
		keydir[string(key)] = keydirEntry{offset: uint64(valueOffset), length: uint32(valueLen)}
		offset = valueOffset + int64(valueLen)
	}
	return keydir, nil
}

// writeEntry appends one self-delimiting entry and returns the file offset
// and length of the value region (or of nothing, for a tombstone).
func (e *DiskEngine) writeEntry(key, value []byte) (valueOffset uint64, valueLen uint32, err error) {
	end, err := e.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, errs.Wrap(errs.Io, err, "seek to end of log %q", e.path)
	}

	var header [logHeaderSize]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(key)))
	if value == nil {
		binary.BigEndian.PutUint32(header[4:], uint32(int32(tombstoneLen)))
	} else {
		binary.BigEndian.PutUint32(header[4:], uint32(int32(len(value))))
	}

	buf := bytes.NewBuffer(make([]byte, 0, logHeaderSize+len(key)+len(value)))
	buf.Write(header[:])
	buf.Write(key)
	if value != nil {
		buf.Write(value)
	}
	if _, err := e.file.Write(buf.Bytes()); err != nil {
		return 0, 0, errs.Wrap(errs.Io, err, "append entry to log %q", e.path)
	}

	valueOffset = uint64(end) + logHeaderSize + uint64(len(key))
	if value != nil {
		valueLen = uint32(len(value))
	}
	return valueOffset, valueLen, nil
}

func (e *DiskEngine) readValue(ke keydirEntry) ([]byte, error) {
	buf := make([]byte, ke.length)
	if ke.length == 0 {
		return buf, nil
	}
	if _, err := e.file.ReadAt(buf, int64(ke.offset)); err != nil {
		return nil, errs.Wrap(errs.Io, err, "read value at offset %d", ke.offset)
	}
	return buf, nil
}

// Set implements Engine.
func (e *DiskEngine) Set(key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	offset, length, err := e.writeEntry(key, value)
	if err != nil {
		return err
	}
	e.keydir[string(key)] = keydirEntry{offset: offset, length: length}
	return nil
}

// Get implements Engine.
func (e *DiskEngine) Get(key []byte) ([]byte, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ke, ok := e.keydir[string(key)]
	if !ok {
		return nil, false, nil
	}
	value, err := e.readValue(ke)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Delete implements Engine.
func (e *DiskEngine) Delete(key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.writeEntry(key, nil); err != nil {
		return err
	}
	delete(e.keydir, string(key))
	return nil
}

// Scan implements Engine.
func (e *DiskEngine) Scan(r Range) Iterator {
	e.mu.RLock()
	defer e.mu.RUnlock()

	items := make([]Item, 0, len(e.keydir))
	for k, ke := range e.keydir {
		if !r.contains([]byte(k)) {
			continue
		}
		value, err := e.readValue(ke)
		if err != nil {
			return &errIterator{err: err}
		}
		items = append(items, Item{Key: []byte(k), Value: value})
	}
	sortItems(items)
	return &sliceIterator{items: items}
}

// ScanPrefix implements Engine.
func (e *DiskEngine) ScanPrefix(p []byte) Iterator {
	return e.Scan(PrefixRange(p))
}

// Close releases the file handle and the advisory lock.
func (e *DiskEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	closeErr := e.file.Close()
	unlockErr := e.lock.Unlock()
	if closeErr != nil {
		return errs.Wrap(errs.Io, closeErr, "close log file %q", e.path)
	}
	if unlockErr != nil {
		return errs.Wrap(errs.Io, unlockErr, "unlock log file %q", e.path)
	}
	return nil
}

// Compact rewrites the log file keeping only the current KeyDir's live
// entries, then atomically renames the rewritten file over the original, per
// spec §4.1. It does not understand MVCC versioning (§9's caveat): callers
// that layer MVCC over a DiskEngine must not compact it, or must first filter
// to keys at or above the oldest active version (the mvcc package never calls
// this method for that reason — see internal/mvcc doc comments).
func (e *DiskEngine) Compact() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tmpPath := e.path + ".compact"
	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return errs.Wrap(errs.Io, err, "open compaction file %q", tmpPath)
	}

	newKeydir := make(map[string]keydirEntry, len(e.keydir))
	var offset int64
	for k, ke := range e.keydir {
		value, err := e.readValue(ke)
		if err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
			return err
		}
		key := []byte(k)

		var header [logHeaderSize]byte
		binary.BigEndian.PutUint32(header[:4], uint32(len(key)))
		binary.BigEndian.PutUint32(header[4:], uint32(len(value)))
		if _, err := tmpFile.Write(header[:]); err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
			return errs.Wrap(errs.Io, err, "write compaction header")
		}
		if _, err := tmpFile.Write(key); err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
			return errs.Wrap(errs.Io, err, "write compaction key")
		}
		if _, err := tmpFile.Write(value); err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
			return errs.Wrap(errs.Io, err, "write compaction value")
		}

		valueOffset := offset + logHeaderSize + int64(len(key))
		newKeydir[k] = keydirEntry{offset: uint64(valueOffset), length: uint32(len(value))}
		offset = valueOffset + int64(len(value))
	}

	if err := tmpFile.Close(); err != nil {
		return errs.Wrap(errs.Io, err, "close compaction file %q", tmpPath)
	}
	if err := e.file.Close(); err != nil {
		return errs.Wrap(errs.Io, err, "close log file before rename")
	}
	if err := os.Rename(tmpPath, e.path); err != nil {
		return errs.Wrap(errs.Io, err, "rename compaction file over %q", e.path)
	}

	file, err := os.OpenFile(e.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return errs.Wrap(errs.Io, err, "reopen log file %q after compaction", e.path)
	}
	e.file = file
	e.keydir = newKeydir
	e.log.Infow("disk engine compacted", "path", e.path, "live_keys", len(newKeydir))
	return nil
}

// Stats reports point-in-time storage statistics, the ambient operational
// surface described in SPEC_FULL §5.1.
type Stats struct {
	LiveKeys int
	FileSize int64
}

// Stats returns a snapshot of the current log size and live key count.
func (e *DiskEngine) Stats() (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	info, err := e.file.Stat()
	if err != nil {
		return Stats{}, errs.Wrap(errs.Io, err, "stat log file %q", e.path)
	}
	return Stats{LiveKeys: len(e.keydir), FileSize: info.Size()}, nil
}

func sortItems(items []Item) {
	// insertion sort is fine: keydirs for an embedded database are not
	// expected to run into the millions of live keys between scans.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && bytes.Compare(items[j-1].Key, items[j].Key) > 0; j-- {
			items[j-1], items[j] = items[j], items[j-1]
		}
	}
}

// errIterator is an Iterator that always fails, used to surface a read error
// discovered while building a Scan's snapshot without changing the Iterator
// contract's shape.
type errIterator struct{ err error }

func (e *errIterator) Next() (Item, bool, error)     { return Item{}, false, e.err }
func (e *errIterator) NextBack() (Item, bool, error) { return Item{}, false, e.err }

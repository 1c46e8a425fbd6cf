// Package rowstore is the durable row-ordered message store. Every record of
// the "message" collection gets a row id that is unique, strictly increasing
// with insertion order and never reused. Reads go through point-in-time
// snapshots walked in row id order.
package rowstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/matheus3301/wpphist/internal/history"
	"go.uber.org/zap"
)

const collection = "message"

var (
	primaryPrefix = []byte(collection + "/k/")
	indexPrefix   = []byte(collection + "/r/")
	nextRowIDKey  = []byte("meta/" + collection + "/next_row_id")
)

// Options tune Open.
type Options struct {
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests.
	FS vfs.FS
	// NoSync skips fsync on write batches.
	NoSync bool
}

// Store is a pebble-backed message collection with a rowId index.
type Store struct {
	db     *pebble.DB
	wo     *pebble.WriteOptions
	logger *zap.Logger

	mu     sync.Mutex
	lastID int64
}

// Open opens or creates the store at dir. Pebble holds a directory lock, so
// one Store per directory per process.
func Open(dir string, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	po := &pebble.Options{}
	if opts.FS != nil {
		po.FS = opts.FS
	}
	db, err := pebble.Open(dir, po)
	if err != nil {
		return nil, fmt.Errorf("open row store: %w", err)
	}

	s := &Store{db: db, wo: pebble.Sync, logger: logger}
	if opts.NoSync {
		s.wo = pebble.NoSync
	}
	last, err := s.readLastID()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.lastID = last
	logger.Info("row store opened", zap.String("dir", dir), zap.Int64("last_row_id", last))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastRowID returns the highest row id assigned so far, 0 when empty.
func (s *Store) LastRowID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

func (s *Store) readLastID() (int64, error) {
	v, closer, err := s.db.Get(nextRowIDKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read row id counter: %w", err)
	}
	defer closer.Close()
	if len(v) != 8 {
		return 0, fmt.Errorf("corrupt row id counter: %d bytes", len(v))
	}
	return int64(binary.BigEndian.Uint64(v)), nil
}

func primaryKey(key string) []byte {
	return append(append([]byte(nil), primaryPrefix...), key...)
}

func indexKey(rowID int64) []byte {
	k := make([]byte, len(indexPrefix)+8)
	copy(k, indexPrefix)
	binary.BigEndian.PutUint64(k[len(indexPrefix):], uint64(rowID))
	return k
}

// indexUpper is the first key past the rowId index.
func indexUpper() []byte {
	k := append([]byte(nil), indexPrefix...)
	k[len(k)-1]++
	return k
}

func counterValue(id int64) []byte {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(id))
	return v
}

// Put writes messages keyed by message key. New keys get the next row id;
// existing keys keep theirs and have their value replaced. Returns the row id
// of each message in input order.
func (s *Store) Put(msgs []history.Message) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.db.NewBatch()
	defer b.Close()

	next := s.lastID
	pending := make(map[string]int64, len(msgs))
	ids := make([]int64, len(msgs))
	for i, m := range msgs {
		if m.Key.IsZero() {
			return nil, fmt.Errorf("put message %d: empty key", i)
		}
		key := m.Key.String()
		pk := primaryKey(key)

		rowID, ok := pending[key]
		if !ok {
			existing, err := s.existingRowID(pk)
			if err != nil {
				return nil, err
			}
			rowID = existing
		}
		if rowID == 0 {
			next++
			rowID = next
		}
		pending[key] = rowID
		ids[i] = rowID

		m.RowID = rowID
		v, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode message %s: %w", key, err)
		}
		if err := b.Set(pk, v, nil); err != nil {
			return nil, err
		}
		if err := b.Set(indexKey(rowID), []byte(key), nil); err != nil {
			return nil, err
		}
	}
	if next != s.lastID {
		if err := b.Set(nextRowIDKey, counterValue(next), nil); err != nil {
			return nil, err
		}
	}
	if err := b.Commit(s.wo); err != nil {
		return nil, fmt.Errorf("commit row batch: %w", err)
	}
	if next != s.lastID {
		s.logger.Debug("rows appended", zap.Int64("from", s.lastID+1), zap.Int64("to", next))
	}
	s.lastID = next
	return ids, nil
}

func (s *Store) existingRowID(pk []byte) (int64, error) {
	v, closer, err := s.db.Get(pk)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", pk, err)
	}
	defer closer.Close()
	var m history.Message
	if err := json.Unmarshal(v, &m); err != nil {
		return 0, fmt.Errorf("decode %s: %w", pk, err)
	}
	return m.RowID, nil
}

// Begin opens a read-only snapshot of the message collection.
func (s *Store) Begin(ctx context.Context) (history.RowTxn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &txn{snap: s.db.NewSnapshot()}, nil
}

type txn struct {
	snap *pebble.Snapshot
}

// Cursor walks the rowId index starting strictly after minRowID.
func (t *txn) Cursor(minRowID int64) (history.RowIterator, error) {
	if minRowID == math.MaxInt64 {
		return &iterator{}, nil
	}
	it, err := t.snap.NewIter(&pebble.IterOptions{
		LowerBound: indexKey(max(minRowID, 0) + 1),
		UpperBound: indexUpper(),
	})
	if err != nil {
		return nil, fmt.Errorf("open row cursor: %w", err)
	}
	return &iterator{snap: t.snap, it: it}, nil
}

func (t *txn) Close() error {
	return t.snap.Close()
}

type iterator struct {
	snap    *pebble.Snapshot
	it      *pebble.Iterator
	started bool
	rec     history.Message
	err     error
}

func (i *iterator) Next() bool {
	if i.it == nil || i.err != nil {
		return false
	}
	var ok bool
	if !i.started {
		ok = i.it.First()
		i.started = true
	} else {
		ok = i.it.Next()
	}
	if !ok {
		return false
	}
	rec, err := i.load(i.it.Value())
	if err != nil {
		i.err = err
		return false
	}
	i.rec = rec
	return true
}

func (i *iterator) load(key []byte) (history.Message, error) {
	var m history.Message
	v, closer, err := i.snap.Get(primaryKey(string(key)))
	if err != nil {
		return m, fmt.Errorf("load row %s: %w", key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &m); err != nil {
		return m, fmt.Errorf("decode row %s: %w", key, err)
	}
	return m, nil
}

func (i *iterator) Record() history.Message { return i.rec }

func (i *iterator) Err() error {
	if i.err != nil {
		return i.err
	}
	if i.it != nil {
		return i.it.Error()
	}
	return nil
}

func (i *iterator) Close() error {
	if i.it == nil {
		return nil
	}
	return i.it.Close()
}

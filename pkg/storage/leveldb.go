// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package storage

import (
	"bytes"
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
	"github.com/syndtr/goleveldb/leveldb"
	lerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBConfig holds the configuration of a goleveldb engine.
type LevelDBConfig struct {
	// Dir is the directory of the engine. Ignored when InMemory is set.
	Dir string
	// InMemory keeps the engine in memory.
	InMemory bool
	// CacheSize is the size of the block cache in bytes.
	CacheSize int64
	// ColumnFamilies lists the column families; AllCFs if empty.
	ColumnFamilies []string
}

// LevelDB is an Engine backed by goleveldb. Unlike pebble, goleveldb honors
// IterOptions.FillCache.
type LevelDB struct {
	db  *leveldb.DB
	cfs columnFamilies
}

var _ Engine = (*LevelDB)(nil)

// NewLevelDB opens a goleveldb engine.
func NewLevelDB(ctx context.Context, cfg LevelDBConfig) (*LevelDB, error) {
	cfs, err := makeColumnFamilies(cfg.ColumnFamilies)
	if err != nil {
		return nil, err
	}
	opts := &opt.Options{
		BlockCacheCapacity: int(cfg.CacheSize),
		Filter:             filter.NewBloomFilter(10),
	}
	var db *leveldb.DB
	if cfg.InMemory {
		db, err = leveldb.Open(lstorage.NewMemStorage(), opts)
	} else {
		db, err = leveldb.OpenFile(cfg.Dir, opts)
	}
	if _, corrupted := err.(*lerrors.ErrCorrupted); corrupted {
		return nil, markEngineIO(err, "goleveldb engine at %q is corrupted", cfg.Dir)
	} else if err != nil {
		return nil, markEngineIO(err, "opening goleveldb engine at %q", cfg.Dir)
	}
	log.Infof(ctx, "opened goleveldb engine at %q with column families %v", cfg.Dir, cfs.names)
	return &LevelDB{db: db, cfs: cfs}, nil
}

// NewInMemLevelDB opens an in-memory goleveldb engine.
func NewInMemLevelDB(ctx context.Context, cfs ...string) (*LevelDB, error) {
	return NewLevelDB(ctx, LevelDBConfig{InMemory: true, ColumnFamilies: cfs})
}

// levelDBReader is implemented by *leveldb.DB and *leveldb.Snapshot.
type levelDBReader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// ColumnFamilies implements the Engine interface.
func (l *LevelDB) ColumnFamilies() []string {
	return append([]string(nil), l.cfs.names...)
}

// Close implements the Engine interface.
func (l *LevelDB) Close() error {
	if err := l.db.Close(); err != nil {
		return markEngineIO(err, "closing goleveldb engine")
	}
	return nil
}

// Get implements the Reader interface.
func (l *LevelDB) Get(cf string, key []byte) ([]byte, error) {
	return levelDBGet(l.db, l.cfs, cf, key)
}

// NewIterator implements the Reader interface.
func (l *LevelDB) NewIterator(cf string, opts IterOptions) (Iterator, error) {
	return newLevelDBIterator(l.db, l.cfs, cf, opts)
}

// ApproximateDiskBytes implements the Reader interface.
func (l *LevelDB) ApproximateDiskBytes(cf string, start, end []byte) (uint64, error) {
	ks, err := l.cfs.lookup(cf)
	if err != nil {
		return 0, err
	}
	lower, upper := ks.bounds(IterOptions{LowerBound: start, UpperBound: end})
	sizes, err := l.db.SizeOf([]util.Range{{Start: lower, Limit: upper}})
	if err != nil {
		return 0, markEngineIO(err, "estimating disk usage")
	}
	return uint64(sizes.Sum()), nil
}

// Put implements the Writer interface.
func (l *LevelDB) Put(cf string, key, value []byte) error {
	ks, err := l.cfs.lookup(cf)
	if err != nil {
		return err
	}
	if err := l.db.Put(ks.encode(key), value, &opt.WriteOptions{Sync: true}); err != nil {
		return markEngineIO(err, "put")
	}
	return nil
}

// Delete implements the Writer interface.
func (l *LevelDB) Delete(cf string, key []byte) error {
	ks, err := l.cfs.lookup(cf)
	if err != nil {
		return err
	}
	if err := l.db.Delete(ks.encode(key), &opt.WriteOptions{Sync: true}); err != nil {
		return markEngineIO(err, "delete")
	}
	return nil
}

// NewBatch implements the Engine interface.
func (l *LevelDB) NewBatch() Batch {
	return &levelDBBatch{db: l.db, cfs: l.cfs}
}

// NewSnapshot implements the Engine interface.
func (l *LevelDB) NewSnapshot() (Snapshot, error) {
	snap, err := l.db.GetSnapshot()
	if err != nil {
		return nil, markEngineIO(err, "creating goleveldb snapshot")
	}
	return &levelDBSnapshot{parent: l, snap: snap}, nil
}

type levelDBSnapshot struct {
	parent *LevelDB
	snap   *leveldb.Snapshot
}

func (s *levelDBSnapshot) Get(cf string, key []byte) ([]byte, error) {
	return levelDBGet(s.snap, s.parent.cfs, cf, key)
}

func (s *levelDBSnapshot) NewIterator(cf string, opts IterOptions) (Iterator, error) {
	return newLevelDBIterator(s.snap, s.parent.cfs, cf, opts)
}

func (s *levelDBSnapshot) ApproximateDiskBytes(cf string, start, end []byte) (uint64, error) {
	return s.parent.ApproximateDiskBytes(cf, start, end)
}

func (s *levelDBSnapshot) Close() error {
	s.snap.Release()
	return nil
}

func levelDBGet(r levelDBReader, cfs columnFamilies, cf string, key []byte) ([]byte, error) {
	ks, err := cfs.lookup(cf)
	if err != nil {
		return nil, err
	}
	v, err := r.Get(ks.encode(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, markEngineIO(err, "get")
	}
	return v, nil
}

type levelDBBatch struct {
	db    *leveldb.DB
	cfs   columnFamilies
	batch leveldb.Batch
}

func (b *levelDBBatch) Put(cf string, key, value []byte) error {
	ks, err := b.cfs.lookup(cf)
	if err != nil {
		return err
	}
	b.batch.Put(ks.encode(key), value)
	return nil
}

func (b *levelDBBatch) Delete(cf string, key []byte) error {
	ks, err := b.cfs.lookup(cf)
	if err != nil {
		return err
	}
	b.batch.Delete(ks.encode(key))
	return nil
}

func (b *levelDBBatch) Commit(sync bool) error {
	if err := b.db.Write(&b.batch, &opt.WriteOptions{Sync: sync}); err != nil {
		return markEngineIO(err, "committing batch")
	}
	return nil
}

func (b *levelDBBatch) Close() error {
	b.batch.Reset()
	return nil
}

// levelDBIterator adapts a goleveldb iterator to the Iterator interface.
type levelDBIterator struct {
	iter         iterator.Iterator
	ks           cfKeyspace
	lower, upper []byte
	exhausted    bool
}

func newLevelDBIterator(
	r levelDBReader, cfs columnFamilies, cf string, opts IterOptions,
) (*levelDBIterator, error) {
	ks, err := cfs.lookup(cf)
	if err != nil {
		return nil, err
	}
	lower, upper := ks.bounds(opts)
	iter := r.NewIterator(
		&util.Range{Start: lower, Limit: upper},
		&opt.ReadOptions{DontFillCache: !opts.FillCache},
	)
	return &levelDBIterator{iter: iter, ks: ks, lower: lower, upper: upper}, nil
}

func (l *levelDBIterator) status(valid bool) (bool, error) {
	l.exhausted = false
	if valid {
		return true, nil
	}
	if err := l.iter.Error(); err != nil {
		return false, markEngineIO(err, "goleveldb iterator")
	}
	return false, nil
}

func (l *levelDBIterator) SeekGE(key []byte) (bool, error) {
	ek, ok := clampSeekGE(l.ks.encode(key), l.lower, l.upper)
	if !ok {
		l.exhausted = true
		return false, nil
	}
	return l.status(l.iter.Seek(ek))
}

// SeekLE has no native counterpart in goleveldb: seek forward, then step
// back unless the seek landed exactly on the key.
func (l *levelDBIterator) SeekLE(key []byte) (bool, error) {
	ek := l.ks.encode(key)
	if bytes.Compare(ek, l.lower) < 0 {
		l.exhausted = true
		return false, nil
	}
	if bytes.Compare(ek, l.upper) >= 0 {
		return l.status(l.iter.Last())
	}
	if l.iter.Seek(ek) {
		if bytes.Equal(l.iter.Key(), ek) {
			return l.status(true)
		}
		return l.status(l.iter.Prev())
	}
	if err := l.iter.Error(); err != nil {
		return l.status(false)
	}
	// Every key within bounds sorts before ek.
	return l.status(l.iter.Last())
}

func (l *levelDBIterator) First() (bool, error) {
	return l.status(l.iter.First())
}

func (l *levelDBIterator) Last() (bool, error) {
	return l.status(l.iter.Last())
}

func (l *levelDBIterator) Next() (bool, error) {
	if l.exhausted {
		return false, nil
	}
	return l.status(l.iter.Next())
}

func (l *levelDBIterator) Prev() (bool, error) {
	if l.exhausted {
		return false, nil
	}
	return l.status(l.iter.Prev())
}

func (l *levelDBIterator) Valid() (bool, error) {
	if l.exhausted {
		return false, nil
	}
	if err := l.iter.Error(); err != nil {
		return false, markEngineIO(err, "goleveldb iterator")
	}
	return l.iter.Valid(), nil
}

func (l *levelDBIterator) Key() []byte {
	return l.ks.decode(l.iter.Key())
}

func (l *levelDBIterator) Value() []byte {
	return l.iter.Value()
}

func (l *levelDBIterator) Close() error {
	err := l.iter.Error()
	l.iter.Release()
	if err != nil {
		return markEngineIO(err, "goleveldb iterator")
	}
	return nil
}

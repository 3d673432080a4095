// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
)

// PebbleConfig holds the configuration of a pebble engine.
type PebbleConfig struct {
	// Dir is the directory of the engine. It may be empty for an in-memory
	// filesystem.
	Dir string
	// FS is the filesystem of the engine; vfs.Default if nil.
	FS vfs.FS
	// CacheSize is the size of the block cache in bytes.
	CacheSize int64
	// ColumnFamilies lists the column families; AllCFs if empty.
	ColumnFamilies []string
}

// Pebble is an Engine backed by a pebble database.
type Pebble struct {
	db  *pebble.DB
	cfs columnFamilies
}

var _ Engine = (*Pebble)(nil)

// NewPebble opens a pebble engine.
func NewPebble(ctx context.Context, cfg PebbleConfig) (*Pebble, error) {
	cfs, err := makeColumnFamilies(cfg.ColumnFamilies)
	if err != nil {
		return nil, err
	}
	fs := cfg.FS
	if fs == nil {
		fs = vfs.Default
	}
	cache := pebble.NewCache(cfg.CacheSize)
	defer cache.Unref()

	opts := &pebble.Options{
		FS:     fs,
		Cache:  cache,
		Logger: pebbleLogger{ctx: ctx},
	}
	db, err := pebble.Open(cfg.Dir, opts)
	if err != nil {
		return nil, markEngineIO(err, "opening pebble engine at %q", cfg.Dir)
	}
	log.Infof(ctx, "opened pebble engine at %q with column families %v", cfg.Dir, cfs.names)
	return &Pebble{db: db, cfs: cfs}, nil
}

// NewInMemPebble opens a pebble engine on an in-memory filesystem.
func NewInMemPebble(ctx context.Context, cfs ...string) (*Pebble, error) {
	return NewPebble(ctx, PebbleConfig{FS: vfs.NewMem(), CacheSize: 1 << 20, ColumnFamilies: cfs})
}

// ColumnFamilies implements the Engine interface.
func (p *Pebble) ColumnFamilies() []string {
	return append([]string(nil), p.cfs.names...)
}

// Close implements the Engine interface.
func (p *Pebble) Close() error {
	if err := p.db.Close(); err != nil {
		return markEngineIO(err, "closing pebble engine")
	}
	return nil
}

// Get implements the Reader interface.
func (p *Pebble) Get(cf string, key []byte) ([]byte, error) {
	return pebbleGet(p.db, p.cfs, cf, key)
}

// NewIterator implements the Reader interface.
func (p *Pebble) NewIterator(cf string, opts IterOptions) (Iterator, error) {
	return newPebbleIterator(p.db, p.cfs, cf, opts)
}

// ApproximateDiskBytes implements the Reader interface.
func (p *Pebble) ApproximateDiskBytes(cf string, start, end []byte) (uint64, error) {
	ks, err := p.cfs.lookup(cf)
	if err != nil {
		return 0, err
	}
	lower, upper := ks.bounds(IterOptions{LowerBound: start, UpperBound: end})
	n, err := p.db.EstimateDiskUsage(lower, upper)
	if err != nil {
		return 0, markEngineIO(err, "estimating disk usage")
	}
	return n, nil
}

// Put implements the Writer interface.
func (p *Pebble) Put(cf string, key, value []byte) error {
	ks, err := p.cfs.lookup(cf)
	if err != nil {
		return err
	}
	if err := p.db.Set(ks.encode(key), value, pebble.Sync); err != nil {
		return markEngineIO(err, "put")
	}
	return nil
}

// Delete implements the Writer interface.
func (p *Pebble) Delete(cf string, key []byte) error {
	ks, err := p.cfs.lookup(cf)
	if err != nil {
		return err
	}
	if err := p.db.Delete(ks.encode(key), pebble.Sync); err != nil {
		return markEngineIO(err, "delete")
	}
	return nil
}

// NewBatch implements the Engine interface.
func (p *Pebble) NewBatch() Batch {
	return &pebbleBatch{batch: p.db.NewBatch(), cfs: p.cfs}
}

// NewSnapshot implements the Engine interface.
func (p *Pebble) NewSnapshot() (Snapshot, error) {
	return &pebbleSnapshot{parent: p, snap: p.db.NewSnapshot()}, nil
}

type pebbleSnapshot struct {
	parent *Pebble
	snap   *pebble.Snapshot
}

func (s *pebbleSnapshot) Get(cf string, key []byte) ([]byte, error) {
	return pebbleGet(s.snap, s.parent.cfs, cf, key)
}

func (s *pebbleSnapshot) NewIterator(cf string, opts IterOptions) (Iterator, error) {
	return newPebbleIterator(s.snap, s.parent.cfs, cf, opts)
}

// ApproximateDiskBytes estimates against the live engine; pebble does not
// keep size estimates per snapshot.
func (s *pebbleSnapshot) ApproximateDiskBytes(cf string, start, end []byte) (uint64, error) {
	return s.parent.ApproximateDiskBytes(cf, start, end)
}

func (s *pebbleSnapshot) Close() error {
	if err := s.snap.Close(); err != nil {
		return markEngineIO(err, "closing pebble snapshot")
	}
	return nil
}

func pebbleGet(r pebble.Reader, cfs columnFamilies, cf string, key []byte) ([]byte, error) {
	ks, err := cfs.lookup(cf)
	if err != nil {
		return nil, err
	}
	v, closer, err := r.Get(ks.encode(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, markEngineIO(err, "get")
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

type pebbleBatch struct {
	batch *pebble.Batch
	cfs   columnFamilies
}

func (b *pebbleBatch) Put(cf string, key, value []byte) error {
	ks, err := b.cfs.lookup(cf)
	if err != nil {
		return err
	}
	return b.batch.Set(ks.encode(key), value, nil)
}

func (b *pebbleBatch) Delete(cf string, key []byte) error {
	ks, err := b.cfs.lookup(cf)
	if err != nil {
		return err
	}
	return b.batch.Delete(ks.encode(key), nil)
}

func (b *pebbleBatch) Commit(sync bool) error {
	wo := pebble.NoSync
	if sync {
		wo = pebble.Sync
	}
	if err := b.batch.Commit(wo); err != nil {
		return markEngineIO(err, "committing batch")
	}
	return nil
}

func (b *pebbleBatch) Close() error {
	return b.batch.Close()
}

// pebbleIterator adapts a pebble.Iterator to the Iterator interface. Pebble
// has no block cache control per iterator, so FillCache is ignored.
type pebbleIterator struct {
	iter         *pebble.Iterator
	ks           cfKeyspace
	lower, upper []byte
	// exhausted is set when a seek was answered without moving iter because
	// its target lies outside the bounds.
	exhausted bool
}

func newPebbleIterator(
	r pebble.Reader, cfs columnFamilies, cf string, opts IterOptions,
) (*pebbleIterator, error) {
	ks, err := cfs.lookup(cf)
	if err != nil {
		return nil, err
	}
	lower, upper := ks.bounds(opts)
	iter, err := r.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, markEngineIO(err, "creating pebble iterator")
	}
	return &pebbleIterator{iter: iter, ks: ks, lower: lower, upper: upper}, nil
}

func (p *pebbleIterator) status(valid bool) (bool, error) {
	p.exhausted = false
	if valid {
		return true, nil
	}
	if err := p.iter.Error(); err != nil {
		return false, markEngineIO(err, "pebble iterator")
	}
	return false, nil
}

func (p *pebbleIterator) SeekGE(key []byte) (bool, error) {
	ek, ok := clampSeekGE(p.ks.encode(key), p.lower, p.upper)
	if !ok {
		p.exhausted = true
		return false, nil
	}
	return p.status(p.iter.SeekGE(ek))
}

func (p *pebbleIterator) SeekLE(key []byte) (bool, error) {
	// The smallest key greater than ek is ek+"\x00", so the last key <= ek is
	// the last key < ek+"\x00".
	ek, ok := clampSeekLT(append(p.ks.encode(key), 0), p.lower, p.upper)
	if !ok {
		p.exhausted = true
		return false, nil
	}
	return p.status(p.iter.SeekLT(ek))
}

func (p *pebbleIterator) First() (bool, error) {
	return p.status(p.iter.First())
}

func (p *pebbleIterator) Last() (bool, error) {
	return p.status(p.iter.Last())
}

func (p *pebbleIterator) Next() (bool, error) {
	if p.exhausted {
		return false, nil
	}
	return p.status(p.iter.Next())
}

func (p *pebbleIterator) Prev() (bool, error) {
	if p.exhausted {
		return false, nil
	}
	return p.status(p.iter.Prev())
}

func (p *pebbleIterator) Valid() (bool, error) {
	if p.exhausted {
		return false, nil
	}
	if err := p.iter.Error(); err != nil {
		return false, markEngineIO(err, "pebble iterator")
	}
	return p.iter.Valid(), nil
}

func (p *pebbleIterator) Key() []byte {
	return p.ks.decode(p.iter.Key())
}

func (p *pebbleIterator) Value() []byte {
	return p.iter.Value()
}

func (p *pebbleIterator) Close() error {
	if err := p.iter.Close(); err != nil {
		return markEngineIO(err, "closing pebble iterator")
	}
	return nil
}

// pebbleLogger routes pebble's log output to the log package.
type pebbleLogger struct {
	ctx context.Context
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	log.InfofDepth(l.ctx, 1, format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...interface{}) {
	log.ErrorfDepth(l.ctx, 1, format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	log.FatalfDepth(l.ctx, 1, format, args...)
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package storage provides the engine interfaces consumed by the region read
// path, with pebble and goleveldb implementations.
//
// Keys handled by this package are physical keys (see package keys). Column
// families are emulated: every column family owns a one-byte namespace in
// front of the physical key, so column families never observe each other's
// data and bounds are applied per column family.
package storage

import (
	"github.com/cockroachdb/errors"
)

// Column family names.
const (
	CFDefault = "default"
	CFLock    = "lock"
	CFWrite   = "write"
	CFRaft    = "raft"
)

// AllCFs lists the standard column families.
var AllCFs = []string{CFDefault, CFLock, CFWrite, CFRaft}

// ErrColumnFamilyNotFound is returned when a request names a column family
// the engine was not opened with.
var ErrColumnFamilyNotFound = errors.New("column family not found")

// ErrEngineIO marks errors that originate in the underlying storage engine.
// Use errors.Is(err, ErrEngineIO) to detect them.
var ErrEngineIO = errors.New("storage engine error")

// markEngineIO wraps an engine error and marks it with ErrEngineIO.
func markEngineIO(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrEngineIO)
}

// IterOptions contains options used to create an Iterator.
//
// Bounds are physical keys. Both bounds are optional; a nil bound leaves
// that side limited only by the column family.
type IterOptions struct {
	// LowerBound gives this iterator an inclusive lower bound.
	LowerBound []byte
	// UpperBound gives this iterator an exclusive upper bound.
	UpperBound []byte
	// FillCache is a hint that blocks read by this iterator should be added
	// to the engine's block cache. Engines without such a control ignore it.
	FillCache bool
}

// Reader is the read interface to an engine's data.
type Reader interface {
	// Get returns the value for the given key in the column family, or nil
	// if the key is not present. The returned slice is owned by the caller.
	Get(cf string, key []byte) ([]byte, error)
	// NewIterator returns an iterator over the column family, restricted to
	// the bounds in opts. The caller must Close it.
	NewIterator(cf string, opts IterOptions) (Iterator, error)
	// ApproximateDiskBytes returns an estimate of the disk space used by the
	// keys in [start, end) of the column family.
	ApproximateDiskBytes(cf string, start, end []byte) (uint64, error)
}

// Writer is the write interface to an engine's data.
type Writer interface {
	// Put sets the given key to the value provided.
	Put(cf string, key, value []byte) error
	// Delete removes the key.
	Delete(cf string, key []byte) error
}

// Snapshot is a consistent, read-only, point-in-time view of an engine.
// A Snapshot may be read concurrently by multiple goroutines.
type Snapshot interface {
	Reader
	// Close releases the snapshot.
	Close() error
}

// Batch accumulates writes that are applied atomically on Commit.
type Batch interface {
	Writer
	// Commit applies the batch to the engine.
	Commit(sync bool) error
	// Close releases the batch. It may be called after Commit.
	Close() error
}

// Engine is the interface to a storage engine shared by all regions of a
// store.
type Engine interface {
	Reader
	Writer
	// NewBatch returns a new write batch.
	NewBatch() Batch
	// NewSnapshot returns a snapshot of the current state of the engine.
	NewSnapshot() (Snapshot, error)
	// ColumnFamilies returns the column families the engine was opened with.
	ColumnFamilies() []string
	// Close closes the engine.
	Close() error
}

// Iterator is a bounded cursor over the keys of one column family.
//
// Positioning methods return whether the iterator is positioned at an entry
// and any error encountered; an exhausted iterator is not an error. Key and
// Value may only be called while positioned, and the returned slices are
// valid until the next positioning call.
//
// An Iterator is not safe for concurrent use.
type Iterator interface {
	// SeekGE positions the iterator at the first key >= key.
	SeekGE(key []byte) (valid bool, err error)
	// SeekLE positions the iterator at the last key <= key.
	SeekLE(key []byte) (valid bool, err error)
	// First positions the iterator at the first key within bounds.
	First() (valid bool, err error)
	// Last positions the iterator at the last key within bounds.
	Last() (valid bool, err error)
	// Next advances the iterator.
	Next() (valid bool, err error)
	// Prev moves the iterator backward.
	Prev() (valid bool, err error)
	// Valid returns whether the iterator is positioned, or the error that
	// invalidated it.
	Valid() (bool, error)
	// Key returns the current key, without the column family namespace.
	Key() []byte
	// Value returns the current value.
	Value() []byte
	// Close releases the iterator.
	Close() error
}

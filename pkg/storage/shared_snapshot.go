// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package storage

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// SharedSnapshot is a reference counted Snapshot. Each holder calls Close
// once; the underlying snapshot is released when the last reference is
// closed. Holders may read concurrently.
type SharedSnapshot struct {
	snap Snapshot
	refs atomic.Int32
}

var _ Snapshot = (*SharedSnapshot)(nil)

// Share wraps snap with a reference count of one. Ownership of snap moves to
// the returned SharedSnapshot.
func Share(snap Snapshot) *SharedSnapshot {
	if s, ok := snap.(*SharedSnapshot); ok {
		return s
	}
	s := &SharedSnapshot{snap: snap}
	s.refs.Store(1)
	return s
}

// Ref adds a reference and returns the receiver.
func (s *SharedSnapshot) Ref() *SharedSnapshot {
	if s.refs.Add(1) <= 1 {
		panic(errors.AssertionFailedf("Ref called on a released snapshot"))
	}
	return s
}

// Refs returns the current number of references. For testing.
func (s *SharedSnapshot) Refs() int32 {
	return s.refs.Load()
}

// Close drops a reference, releasing the underlying snapshot when it was the
// last one.
func (s *SharedSnapshot) Close() error {
	switch n := s.refs.Add(-1); {
	case n == 0:
		return s.snap.Close()
	case n < 0:
		panic(errors.AssertionFailedf("snapshot closed %d times too many", -n))
	default:
		return nil
	}
}

// Get implements the Reader interface.
func (s *SharedSnapshot) Get(cf string, key []byte) ([]byte, error) {
	return s.snap.Get(cf, key)
}

// NewIterator implements the Reader interface.
func (s *SharedSnapshot) NewIterator(cf string, opts IterOptions) (Iterator, error) {
	return s.snap.NewIterator(cf, opts)
}

// ApproximateDiskBytes implements the Reader interface.
func (s *SharedSnapshot) ApproximateDiskBytes(cf string, start, end []byte) (uint64, error) {
	return s.snap.ApproximateDiskBytes(cf, start, end)
}

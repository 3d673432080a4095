// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package regionsnap

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/keys"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/cockroachdb/regionsnap/pkg/storage"
)

// Iterator iterates over the entries of one column family of a region. Keys
// are logical keys. The engine iterator is bounded to the region, so stepping
// never leaves it; explicit seek targets are checked against the region
// before they reach the engine.
//
// An Iterator is not safe for concurrent use.
type Iterator struct {
	ctx    context.Context
	iter   storage.Iterator
	snap   *storage.SharedSnapshot
	desc   *roachpb.RegionDescriptor
	policy *CorruptionPolicy
	// lower and upper are the physical bounds of iter.
	lower, upper []byte
	closed       bool
}

// SeekToFirst positions the iterator at the first entry.
func (i *Iterator) SeekToFirst() (bool, error) {
	return i.iter.First()
}

// SeekToLast positions the iterator at the last entry.
func (i *Iterator) SeekToLast() (bool, error) {
	return i.iter.Last()
}

// Seek positions the iterator at the first entry with a key >= key. The key
// must lie within the region.
func (i *Iterator) Seek(key roachpb.Key) (bool, error) {
	if err := i.CheckSeekKey(key, false /* inclusive */); err != nil {
		return false, err
	}
	return i.iter.SeekGE(keys.DataKey(key))
}

// SeekForPrev positions the iterator at the last entry with a key <= key. The
// key must lie within the region or be equal to its end key.
func (i *Iterator) SeekForPrev(key roachpb.Key) (bool, error) {
	if err := i.CheckSeekKey(key, true /* inclusive */); err != nil {
		return false, err
	}
	return i.iter.SeekLE(keys.DataKey(key))
}

// CheckSeekKey returns an error if key is not a legal target for Seek, or for
// SeekForPrev if inclusive is set. Violations are handed to the corruption
// policy exactly as a rejected seek would be.
func (i *Iterator) CheckSeekKey(key roachpb.Key, inclusive bool) error {
	if !i.isSeekable(key, inclusive) {
		return i.keyNotInRegion(key)
	}
	return nil
}

// isSeekable returns whether key is a legal seek target.
func (i *Iterator) isSeekable(key roachpb.Key, inclusive bool) bool {
	if inclusive {
		return i.desc.ContainsKeyInclusive(key)
	}
	return i.desc.ContainsKey(key)
}

func (i *Iterator) keyNotInRegion(key roachpb.Key) error {
	return i.policy.OnKeyNotInRegion(i.ctx, key, i.desc)
}

// Next moves to the next entry.
func (i *Iterator) Next() (bool, error) {
	return i.iter.Next()
}

// Prev moves to the previous entry.
func (i *Iterator) Prev() (bool, error) {
	return i.iter.Prev()
}

// Valid returns whether the iterator is positioned at an entry.
func (i *Iterator) Valid() (bool, error) {
	return i.iter.Valid()
}

// Key returns the logical key of the current entry. The iterator must be
// valid, and the result is only valid until the iterator moves.
func (i *Iterator) Key() roachpb.Key {
	return keys.OriginKey(i.iter.Key())
}

// Value returns the value of the current entry. The iterator must be valid,
// and the result is only valid until the iterator moves.
func (i *Iterator) Value() []byte {
	return i.iter.Value()
}

// Bounds returns the physical bounds the iterator was created with.
func (i *Iterator) Bounds() (lower, upper []byte) {
	return i.lower, i.upper
}

// Close releases the iterator. It must be called exactly once.
func (i *Iterator) Close() error {
	if i.closed {
		return errors.AssertionFailedf("iterator closed twice")
	}
	i.closed = true
	err := i.iter.Close()
	return errors.CombineErrors(err, i.snap.Close())
}

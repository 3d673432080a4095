// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package regionsnap provides read-only views of a single region over a
// storage engine shared by all regions of a store. A view translates the
// logical keys of its region to the physical keys of the engine and
// guarantees that no read observes a key outside of the region.
package regionsnap

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/regionsnap/pkg/keys"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/cockroachdb/regionsnap/pkg/storage"
)

// IterOptions configures an Iterator. Bounds are logical keys; nil bounds
// default to the bounds of the region.
type IterOptions struct {
	// LowerBound is the inclusive lower bound.
	LowerBound roachpb.Key
	// UpperBound is the exclusive upper bound.
	UpperBound roachpb.Key
	// FillCache requests that blocks read by the iterator populate the block
	// cache. Not every engine honours it.
	FillCache bool
}

// ScanFunc is called for every entry visited by Scan. Returning false stops
// the scan; a returned error stops the scan and is returned by Scan.
type ScanFunc func(key roachpb.Key, value []byte) (wantMore bool, err error)

// RegionSnapshot is a consistent read-only view of one region. It is safe for
// concurrent use; each Iterator it creates has a single owner.
type RegionSnapshot struct {
	snap   *storage.SharedSnapshot
	desc   *roachpb.RegionDescriptor
	policy *CorruptionPolicy
}

// New creates a RegionSnapshot over snap, which it takes ownership of. The
// descriptor is copied, so later changes to desc are not observed.
func New(
	snap storage.Snapshot, desc *roachpb.RegionDescriptor, policy *CorruptionPolicy,
) *RegionSnapshot {
	return &RegionSnapshot{
		snap:   storage.Share(snap),
		desc:   desc.Clone(),
		policy: policy,
	}
}

// NewFromEngine creates a RegionSnapshot from a new snapshot of eng.
func NewFromEngine(
	eng storage.Engine, desc *roachpb.RegionDescriptor, policy *CorruptionPolicy,
) (*RegionSnapshot, error) {
	snap, err := eng.NewSnapshot()
	if err != nil {
		return nil, errors.Wrapf(err, "snapshotting r%d", desc.RegionID)
	}
	return New(snap, desc, policy), nil
}

// Clone returns a RegionSnapshot sharing the engine snapshot and descriptor
// of s. Both must be closed.
func (s *RegionSnapshot) Clone() *RegionSnapshot {
	return &RegionSnapshot{
		snap:   s.snap.Ref(),
		desc:   s.desc,
		policy: s.policy,
	}
}

// Close releases the reference of s to the engine snapshot. Iterators hold
// their own reference and stay usable until closed.
func (s *RegionSnapshot) Close() error {
	return s.snap.Close()
}

// Desc returns the descriptor of the region. It must not be modified.
func (s *RegionSnapshot) Desc() *roachpb.RegionDescriptor {
	return s.desc
}

// StartKey returns the start key of the region.
func (s *RegionSnapshot) StartKey() roachpb.Key {
	return s.desc.StartKey
}

// EndKey returns the end key of the region; empty for the last region.
func (s *RegionSnapshot) EndKey() roachpb.Key {
	return s.desc.EndKey
}

func (s *RegionSnapshot) annotate(ctx context.Context) context.Context {
	return logtags.AddTag(ctx, "r", s.desc.RegionID)
}

// Get reads key from the default column family. It returns nil if the key
// does not exist.
func (s *RegionSnapshot) Get(ctx context.Context, key roachpb.Key) ([]byte, error) {
	return s.GetCF(ctx, storage.CFDefault, key)
}

// GetCF reads key from column family cf. It returns nil if the key does not
// exist.
func (s *RegionSnapshot) GetCF(ctx context.Context, cf string, key roachpb.Key) ([]byte, error) {
	if !s.desc.ContainsKey(key) {
		return nil, s.policy.OnKeyNotInRegion(s.annotate(ctx), key, s.desc)
	}
	return s.snap.Get(cf, keys.DataKey(key))
}

// GetUint64 reads a big-endian uint64 from the default column family. ok is
// false if the key does not exist.
func (s *RegionSnapshot) GetUint64(
	ctx context.Context, key roachpb.Key,
) (_ uint64, ok bool, _ error) {
	v, err := s.Get(ctx, key)
	if err != nil || v == nil {
		return 0, false, err
	}
	if len(v) != 8 {
		return 0, false, errors.Newf("value of %s has %d bytes, expected 8", key, len(v))
	}
	return binary.BigEndian.Uint64(v), true, nil
}

// GetInt64 is like GetUint64 for a signed value.
func (s *RegionSnapshot) GetInt64(ctx context.Context, key roachpb.Key) (int64, bool, error) {
	v, ok, err := s.GetUint64(ctx, key)
	return int64(v), ok, err
}

// NewIterator creates an iterator over the default column family.
func (s *RegionSnapshot) NewIterator(ctx context.Context, opts IterOptions) (*Iterator, error) {
	return s.NewIteratorCF(ctx, storage.CFDefault, opts)
}

// NewIteratorCF creates an iterator over column family cf. The bounds in opts
// are narrowed to the region.
func (s *RegionSnapshot) NewIteratorCF(
	ctx context.Context, cf string, opts IterOptions,
) (*Iterator, error) {
	lower := ClipLowerBound(opts.LowerBound, s.desc)
	upper := ClipUpperBound(opts.UpperBound, s.desc)
	iter, err := s.snap.NewIterator(cf, storage.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
		FillCache:  opts.FillCache,
	})
	if err != nil {
		return nil, err
	}
	return &Iterator{
		ctx:    s.annotate(ctx),
		iter:   iter,
		snap:   s.snap.Ref(),
		desc:   s.desc,
		policy: s.policy,
		lower:  lower,
		upper:  upper,
	}, nil
}

// Scan calls f for every entry of the default column family in [start, end),
// in key order. start is a seek target and must lie within the region; pass
// StartKey() to scan from the beginning of the region. An empty end defaults
// to the end of the region.
func (s *RegionSnapshot) Scan(
	ctx context.Context, start, end roachpb.Key, fillCache bool, f ScanFunc,
) error {
	return s.ScanCF(ctx, storage.CFDefault, start, end, fillCache, f)
}

// ScanCF is like Scan for column family cf.
func (s *RegionSnapshot) ScanCF(
	ctx context.Context, cf string, start, end roachpb.Key, fillCache bool, f ScanFunc,
) (retErr error) {
	iter, err := s.NewIteratorCF(ctx, cf, IterOptions{
		LowerBound: start,
		UpperBound: end,
		FillCache:  fillCache,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := iter.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	valid, err := iter.Seek(start)
	for ; valid; valid, err = iter.Next() {
		wantMore, err := f(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !wantMore {
			return nil
		}
	}
	return err
}

// ApproximateDiskBytes estimates the disk space used by the region in column
// family cf.
func (s *RegionSnapshot) ApproximateDiskBytes(cf string) (uint64, error) {
	return s.snap.ApproximateDiskBytes(cf, keys.EncStartKey(s.desc), keys.EncEndKey(s.desc))
}

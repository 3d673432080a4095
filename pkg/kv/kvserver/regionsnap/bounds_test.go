// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package regionsnap

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/base"
	"github.com/cockroachdb/regionsnap/pkg/keys"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/cockroachdb/regionsnap/pkg/storage"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// smallKeyGen generates keys over a small alphabet, which makes equal and
// prefix keys likely.
func smallKeyGen() gopter.Gen {
	return gen.SliceOf(gen.UInt8Range(0, 3))
}

// TestClipBoundsProperties checks that the clipped physical bounds select
// exactly the keys that are both in the region and in the user bounds.
func TestClipBoundsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 1000
	properties := gopter.NewProperties(parameters)
	keyGen := smallKeyGen()

	properties.Property("clipped bounds intersect region and user bounds", prop.ForAll(
		func(start, end, userLower, userUpper, k []byte) bool {
			desc := &roachpb.RegionDescriptor{StartKey: start, EndKey: end}
			lower := ClipLowerBound(userLower, desc)
			upper := ClipUpperBound(userUpper, desc)

			dk := keys.DataKey(k)
			selected := bytes.Compare(dk, lower) >= 0 && bytes.Compare(dk, upper) < 0
			return selected == inBounds(k, desc, userLower, userUpper)
		},
		keyGen, keyGen, keyGen, keyGen, keyGen,
	))
	properties.Property("clipped bounds stay within the region", prop.ForAll(
		func(start, end, userLower, userUpper []byte) bool {
			desc := &roachpb.RegionDescriptor{StartKey: start, EndKey: end}
			return bytes.Compare(ClipLowerBound(userLower, desc), keys.EncStartKey(desc)) >= 0 &&
				bytes.Compare(ClipUpperBound(userUpper, desc), keys.EncEndKey(desc)) <= 0
		},
		keyGen, keyGen, keyGen, keyGen,
	))
	properties.TestingRun(t)
}

// inBounds returns whether k lies in desc and in the optional user bounds.
func inBounds(k roachpb.Key, desc *roachpb.RegionDescriptor, userLower, userUpper roachpb.Key) bool {
	return desc.ContainsKey(k) &&
		(len(userLower) == 0 || bytes.Compare(k, userLower) >= 0) &&
		(len(userUpper) == 0 || bytes.Compare(k, userUpper) < 0)
}

// TestRegionIteratorProperties fills an engine with random keys and checks
// that a region iterator with random bounds returns exactly the keys in the
// region and the bounds, and that iterating backward mirrors iterating
// forward.
func TestRegionIteratorProperties(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	keyGen := smallKeyGen()

	for _, engine := range []string{base.EnginePebble, base.EngineLevelDB} {
		t.Run(engine, func(t *testing.T) {
			parameters := gopter.DefaultTestParameters()
			parameters.MinSuccessfulTests = 200
			properties := gopter.NewProperties(parameters)
			properties.Property("iteration covers region and bounds in both directions", prop.ForAll(
				func(data [][]byte, start, end, userLower, userUpper []byte) bool {
					desc := &roachpb.RegionDescriptor{RegionID: 1, StartKey: start, EndKey: end}
					if err := checkRegionIteration(ctx, engine, data, desc, userLower, userUpper); err != nil {
						t.Log(err)
						return false
					}
					return true
				},
				gen.SliceOf(keyGen), keyGen, keyGen, keyGen, keyGen,
			))
			properties.TestingRun(t)
		})
	}
}

func checkRegionIteration(
	ctx context.Context,
	engine string,
	data [][]byte,
	desc *roachpb.RegionDescriptor,
	userLower, userUpper roachpb.Key,
) (retErr error) {
	eng, err := storage.Open(ctx, base.StorageConfig{
		Engine:         engine,
		InMemory:       true,
		ColumnFamilies: storage.AllCFs,
	})
	if err != nil {
		return err
	}
	defer func() { retErr = errors.CombineErrors(retErr, eng.Close()) }()

	if err := eng.Put(storage.CFDefault, keys.StoreIdentKey(), []byte("ident")); err != nil {
		return err
	}
	expected := map[string]struct{}{}
	for _, k := range data {
		if err := eng.Put(storage.CFDefault, keys.DataKey(k), k); err != nil {
			return err
		}
		if inBounds(k, desc, userLower, userUpper) {
			expected[string(k)] = struct{}{}
		}
	}
	want := make([]string, 0, len(expected))
	for k := range expected {
		want = append(want, k)
	}
	sort.Strings(want)

	snap, err := NewFromEngine(eng, desc, nil /* policy */)
	if err != nil {
		return err
	}
	defer func() { retErr = errors.CombineErrors(retErr, snap.Close()) }()
	iter, err := snap.NewIterator(ctx, IterOptions{LowerBound: userLower, UpperBound: userUpper})
	if err != nil {
		return err
	}
	defer func() { retErr = errors.CombineErrors(retErr, iter.Close()) }()

	var forward, backward []string
	valid, err := iter.SeekToFirst()
	for ; valid; valid, err = iter.Next() {
		if !desc.ContainsKey(iter.Key()) {
			return errors.Newf("%s returned key %s outside of the region", desc, iter.Key())
		}
		if !bytes.Equal(iter.Key(), iter.Value()) {
			return errors.Newf("key %s has value %q", iter.Key(), iter.Value())
		}
		forward = append(forward, string(iter.Key()))
	}
	if err != nil {
		return err
	}
	valid, err = iter.SeekToLast()
	for ; valid; valid, err = iter.Prev() {
		backward = append(backward, string(iter.Key()))
	}
	if err != nil {
		return err
	}

	if len(forward) != len(want) {
		return errors.Newf("%s: forward scan returned %q, expected %q", desc, forward, want)
	}
	for i := range want {
		if forward[i] != want[i] {
			return errors.Newf("%s: forward scan returned %q, expected %q", desc, forward, want)
		}
	}
	if len(backward) != len(forward) {
		return errors.Newf("%s: backward scan returned %q, forward %q", desc, backward, forward)
	}
	for i := range forward {
		if backward[len(backward)-1-i] != forward[i] {
			return errors.Newf("%s: backward scan returned %q, forward %q", desc, backward, forward)
		}
	}
	return nil
}

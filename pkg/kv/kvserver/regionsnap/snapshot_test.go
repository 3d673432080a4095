// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package regionsnap

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/keys"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/cockroachdb/regionsnap/pkg/storage"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestEngine(t *testing.T, kvs ...string) storage.Engine {
	eng, err := storage.NewInMemPebble(context.Background())
	require.NoError(t, err)
	for i := 0; i < len(kvs); i += 2 {
		require.NoError(t, eng.Put(storage.CFDefault, keys.DataKey(roachpb.Key(kvs[i])), []byte(kvs[i+1])))
	}
	return eng
}

func TestClipBounds(t *testing.T) {
	bounded := &roachpb.RegionDescriptor{StartKey: roachpb.Key("b"), EndKey: roachpb.Key("d")}
	unbounded := &roachpb.RegionDescriptor{}

	testCases := []struct {
		desc         *roachpb.RegionDescriptor
		lower, upper string
		expLower     string
		expUpper     string
	}{
		{bounded, "", "", "zb", "zd"},
		{bounded, "a", "e", "zb", "zd"},
		{bounded, "b", "d", "zb", "zd"},
		{bounded, "bb", "c", "zbb", "zc"},
		{bounded, "c", "\xff", "zc", "zd"},
		{unbounded, "", "", "z", "{"},
		{unbounded, "a", "\xff", "za", "z\xff"},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%q-%q", tc.desc, tc.lower, tc.upper), func(t *testing.T) {
			var lower, upper roachpb.Key
			if tc.lower != "" {
				lower = roachpb.Key(tc.lower)
			}
			if tc.upper != "" {
				upper = roachpb.Key(tc.upper)
			}
			require.Equal(t, []byte(tc.expLower), ClipLowerBound(lower, tc.desc))
			require.Equal(t, []byte(tc.expUpper), ClipUpperBound(upper, tc.desc))
		})
	}
}

func TestRegionSnapshotDescriptorIsCopied(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	eng := newTestEngine(t, "a3", "v3", "c1", "w1")
	defer eng.Close()

	desc := &roachpb.RegionDescriptor{RegionID: 3, StartKey: roachpb.Key("a"), EndKey: roachpb.Key("b")}
	snap, err := NewFromEngine(eng, desc, nil /* policy */)
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()

	desc.EndKey = roachpb.Key("z")
	desc.StartKey[0] = 'c'
	require.Equal(t, roachpb.Key("a"), snap.StartKey())
	require.Equal(t, roachpb.Key("b"), snap.EndKey())

	v, err := snap.Get(ctx, roachpb.Key("a3"))
	require.NoError(t, err)
	require.Equal(t, []byte("v3"), v)
	_, err = snap.Get(ctx, roachpb.Key("c1"))
	require.True(t, errors.HasType(err, (*KeyNotInRegionError)(nil)))
}

func TestRegionSnapshotIsolation(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	eng := newTestEngine(t, "a3", "v3")
	defer eng.Close()

	snap, err := NewFromEngine(eng, testDesc, nil /* policy */)
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()

	require.NoError(t, eng.Put(storage.CFDefault, keys.DataKey(roachpb.Key("a4")), []byte("v4")))
	v, err := snap.Get(ctx, roachpb.Key("a4"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestRegionSnapshotCloneAndClose(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	eng := newTestEngine(t, "a3", "v3", "a5", "v5")
	defer eng.Close()

	snap, err := NewFromEngine(eng, testDesc, nil /* policy */)
	require.NoError(t, err)
	clone := snap.Clone()
	require.Same(t, snap.Desc(), clone.Desc())
	require.Equal(t, int32(2), snap.snap.Refs())

	iter, err := clone.NewIterator(ctx, IterOptions{})
	require.NoError(t, err)
	require.Equal(t, int32(3), snap.snap.Refs())

	// The iterator stays usable after every snapshot handle is closed.
	require.NoError(t, snap.Close())
	require.NoError(t, clone.Close())
	valid, err := iter.SeekToLast()
	require.NoError(t, err)
	require.True(t, valid)
	require.Equal(t, roachpb.Key("a5"), iter.Key())
	require.NoError(t, iter.Close())
	require.Equal(t, int32(0), snap.snap.Refs())

	require.Error(t, iter.Close())
}

func TestRegionSnapshotScanVisitorError(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	eng := newTestEngine(t, "a3", "v3", "a5", "v5")
	defer eng.Close()

	snap, err := NewFromEngine(eng, testDesc, nil /* policy */)
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()

	boom := errors.New("boom")
	var visited []string
	err = snap.Scan(ctx, roachpb.Key("a2"), nil, false /* fillCache */, func(key roachpb.Key, _ []byte) (bool, error) {
		visited = append(visited, string(key))
		return true, boom
	})
	require.True(t, errors.Is(err, boom))
	require.Equal(t, []string{"a3"}, visited)
}

func TestRegionSnapshotUnknownColumnFamily(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	eng := newTestEngine(t)
	defer eng.Close()

	metrics := MakeMetrics()
	snap, err := NewFromEngine(eng, testDesc, &CorruptionPolicy{CriticalErrors: metrics.CriticalErrors})
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()

	_, err = snap.NewIteratorCF(ctx, "bogus", IterOptions{})
	require.True(t, errors.Is(err, storage.ErrColumnFamilyNotFound))
	_, err = snap.GetCF(ctx, "bogus", roachpb.Key("a3"))
	require.True(t, errors.Is(err, storage.ErrColumnFamilyNotFound))
	_, err = snap.ApproximateDiskBytes("bogus")
	require.True(t, errors.Is(err, storage.ErrColumnFamilyNotFound))
	require.Zero(t, metrics.CriticalErrors.Count(CriticalErrorKeyNotInRegion))
}

func TestRegionSnapshotApproximateDiskBytes(t *testing.T) {
	defer log.Scope(t).Close(t)
	eng := newTestEngine(t, "a3", "v3")
	defer eng.Close()

	snap, err := NewFromEngine(eng, testDesc, nil /* policy */)
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()
	_, err = snap.ApproximateDiskBytes(storage.CFDefault)
	require.NoError(t, err)
}

// TestRegionSnapshotConcurrentReaders reads one snapshot from many goroutines,
// each through its own clone and iterators.
func TestRegionSnapshotConcurrentReaders(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()

	var kvs []string
	for i := 0; i < 100; i++ {
		kvs = append(kvs, fmt.Sprintf("a5%03d", i), fmt.Sprint(i))
	}
	eng := newTestEngine(t, kvs...)
	defer eng.Close()

	snap, err := NewFromEngine(eng, testDesc, nil /* policy */)
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()

	g, gCtx := errgroup.WithContext(ctx)
	for w := 0; w < 8; w++ {
		reader := snap.Clone()
		g.Go(func() error {
			defer reader.Close()
			for j := 0; j < 10; j++ {
				var n int
				if err := reader.Scan(gCtx, reader.StartKey(), nil, false /* fillCache */, func(roachpb.Key, []byte) (bool, error) {
					n++
					return true, nil
				}); err != nil {
					return err
				}
				if n != 100 {
					return errors.Newf("scanned %d keys, expected 100", n)
				}
				if _, err := reader.Get(gCtx, roachpb.Key("a1")); err == nil {
					return errors.New("expected error reading outside of the region")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestRegionSnapshotScanStartIsChecked(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()

	var exited bool
	log.SetExitFunc(true /* hideStack */, func(int) { exited = true })
	defer log.ResetExitFunc()

	eng := newTestEngine(t, "a1", "v1", "a3", "v3", "a5", "v5")
	defer eng.Close()

	metrics := MakeMetrics()
	snap, err := NewFromEngine(eng, testDesc, &CorruptionPolicy{
		FailFast:       true,
		CriticalErrors: metrics.CriticalErrors,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, snap.Close()) }()

	var visited []string
	visit := func(key roachpb.Key, _ []byte) (bool, error) {
		visited = append(visited, string(key))
		return true, nil
	}

	// The empty key is outside of [a2, a7).
	err = snap.Scan(ctx, nil, nil, false /* fillCache */, visit)
	require.True(t, errors.HasType(err, (*KeyNotInRegionError)(nil)), "%v", err)
	require.True(t, exited)
	require.Empty(t, visited)
	require.Equal(t, int64(1), metrics.CriticalErrors.Count(CriticalErrorKeyNotInRegion))

	exited = false
	require.NoError(t, snap.Scan(ctx, snap.StartKey(), nil, false /* fillCache */, visit))
	require.False(t, exited)
	require.Equal(t, []string{"a3", "a5"}, visited)
	require.Equal(t, int64(1), metrics.CriticalErrors.Count(CriticalErrorKeyNotInRegion))
}

var errDiskOnFire = errors.Mark(errors.New("disk on fire"), storage.ErrEngineIO)

// faultySnapshot wraps an engine snapshot. Get always fails, and the
// iterators it creates fail on every step and validity check. The options of
// every iterator are recorded.
type faultySnapshot struct {
	storage.Snapshot
	iterOpts []storage.IterOptions
}

func (f *faultySnapshot) Get(string, []byte) ([]byte, error) {
	return nil, errDiskOnFire
}

func (f *faultySnapshot) NewIterator(cf string, opts storage.IterOptions) (storage.Iterator, error) {
	f.iterOpts = append(f.iterOpts, opts)
	iter, err := f.Snapshot.NewIterator(cf, opts)
	if err != nil {
		return nil, err
	}
	return &faultyIterator{Iterator: iter}, nil
}

type faultyIterator struct {
	storage.Iterator
}

func (f *faultyIterator) Next() (bool, error)  { return false, errDiskOnFire }
func (f *faultyIterator) Prev() (bool, error)  { return false, errDiskOnFire }
func (f *faultyIterator) Valid() (bool, error) { return false, errDiskOnFire }

func TestRegionSnapshotEngineErrors(t *testing.T) {
	defer log.Scope(t).Close(t)
	ctx := context.Background()
	eng := newTestEngine(t, "a3", "v3", "a5", "v5")
	defer eng.Close()

	engSnap, err := eng.NewSnapshot()
	require.NoError(t, err)
	faulty := &faultySnapshot{Snapshot: engSnap}
	metrics := MakeMetrics()
	snap := New(faulty, testDesc, &CorruptionPolicy{CriticalErrors: metrics.CriticalErrors})
	defer func() { require.NoError(t, snap.Close()) }()

	_, err = snap.Get(ctx, roachpb.Key("a3"))
	require.True(t, errors.Is(err, storage.ErrEngineIO), "%v", err)

	var visited []string
	err = snap.Scan(ctx, snap.StartKey(), nil, true /* fillCache */, func(key roachpb.Key, _ []byte) (bool, error) {
		visited = append(visited, string(key))
		return true, nil
	})
	require.True(t, errors.Is(err, storage.ErrEngineIO), "%v", err)
	require.Equal(t, []string{"a3"}, visited)

	iter, err := snap.NewIterator(ctx, IterOptions{})
	require.NoError(t, err)
	valid, err := iter.Seek(roachpb.Key("a3"))
	require.NoError(t, err)
	require.True(t, valid)
	_, err = iter.Valid()
	require.True(t, errors.Is(err, storage.ErrEngineIO), "%v", err)
	_, err = iter.Next()
	require.True(t, errors.Is(err, storage.ErrEngineIO), "%v", err)
	_, err = iter.Prev()
	require.True(t, errors.Is(err, storage.ErrEngineIO), "%v", err)
	require.NoError(t, iter.Close())

	// Engine failures are not region violations.
	require.Zero(t, metrics.CriticalErrors.Count(CriticalErrorKeyNotInRegion))

	// The fill cache hint reaches the engine.
	require.Len(t, faulty.iterOpts, 2)
	require.True(t, faulty.iterOpts[0].FillCache)
	require.False(t, faulty.iterOpts[1].FillCache)
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package keys

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/stretchr/testify/require"
)

func TestDataKeyRoundTrip(t *testing.T) {
	for _, k := range []roachpb.Key{
		nil,
		roachpb.Key(""),
		roachpb.Key("a"),
		roachpb.Key("a1"),
		roachpb.Key("z"),
		roachpb.Key("\x00\x01\xff"),
		roachpb.Key("\xff\xff"),
	} {
		dk := DataKey(k)
		require.True(t, IsDataKey(dk))
		require.Equal(t, len(k)+1, len(dk))
		decoded, err := DecodeDataKey(dk)
		require.NoError(t, err)
		require.True(t, k.Equal(decoded), "%q != %q", k, decoded)
		require.True(t, k.Equal(OriginKey(dk)))
	}
}

func TestDataKeyDoesNotAlias(t *testing.T) {
	k := roachpb.Key("abc")
	dk := DataKey(k)
	dk[1] = 'x'
	require.Equal(t, roachpb.Key("abc"), k)
}

func TestDataKeyOrdering(t *testing.T) {
	// The physical encoding must preserve the logical order and stay inside
	// [DataMinKey, DataMaxKey).
	ks := []roachpb.Key{roachpb.Key(""), roachpb.Key("\x00"), roachpb.Key("a"), roachpb.Key("a\x00"), roachpb.Key("b"), roachpb.Key("\xff\xff\xff")}
	for i := range ks {
		dk := DataKey(ks[i])
		require.True(t, bytes.Compare(dk, DataMinKey) >= 0)
		require.True(t, bytes.Compare(dk, DataMaxKey) < 0)
		if i > 0 {
			require.True(t, bytes.Compare(DataKey(ks[i-1]), dk) < 0)
		}
	}
	require.True(t, bytes.Compare(LocalMaxKey, DataMinKey) <= 0)
	require.True(t, bytes.Compare(StoreIdentKey(), LocalMaxKey) < 0)
	require.True(t, bytes.Compare(RegionStateKey(10), LocalMaxKey) < 0)
}

func TestDecodeDataKeyError(t *testing.T) {
	for _, k := range [][]byte{nil, {}, StoreIdentKey(), []byte("a1")} {
		_, err := DecodeDataKey(k)
		require.Error(t, err)
		require.Panics(t, func() { OriginKey(k) })
	}
}

func TestEncRegionBounds(t *testing.T) {
	desc := &roachpb.RegionDescriptor{RegionID: 10, StartKey: roachpb.Key("a2"), EndKey: roachpb.Key("a7")}
	require.Equal(t, []byte("za2"), EncStartKey(desc))
	require.Equal(t, []byte("za7"), EncEndKey(desc))

	last := &roachpb.RegionDescriptor{RegionID: 1}
	require.Equal(t, DataMinKey, EncStartKey(last))
	require.Equal(t, DataMaxKey, EncEndKey(last))

	// EncEndKey must not hand out the package-level DataMaxKey slice.
	end := EncEndKey(last)
	end[0] = 0
	require.Equal(t, []byte{DataPrefix + 1}, DataMaxKey)
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package keys

import "github.com/cockroachdb/regionsnap/pkg/roachpb"

// Constants for the physical keyspace shared by all regions of a store.
//
// The keyspace is split in two parts:
//
//   - store-local keys, prefixed with LocalPrefix, hold metadata that is not
//     addressable through any region (store identity, per-region state);
//   - data keys, prefixed with DataPrefix, hold the user keys of every region
//     on the store.
//
// LocalPrefix sorts before DataPrefix, so a bounded scan over the data keys
// never crosses into metadata.
const (
	// LocalPrefix is the prefix of all store-local keys.
	LocalPrefix byte = 0x01
	// DataPrefix is the prefix of all region data keys.
	DataPrefix byte = 'z'
)

var (
	// LocalMinKey is the first store-local key.
	LocalMinKey = []byte{LocalPrefix}
	// LocalMaxKey is the upper bound of the store-local keyspace.
	LocalMaxKey = []byte{LocalPrefix + 1}

	// DataMinKey is the physical encoding of the empty logical key.
	DataMinKey = []byte{DataPrefix}
	// DataMaxKey sorts after every data key. It is the encoded end key of
	// the last region of the keyspace.
	DataMaxKey = []byte{DataPrefix + 1}

	localStoreIdentSuffix  = []byte("\x01ident")
	localRegionStateSuffix = []byte("\x02state")
)

// StoreIdentKey returns the store-local key holding the store identity.
func StoreIdentKey() []byte {
	return makeKey(LocalMinKey, localStoreIdentSuffix)
}

// RegionStateKey returns the store-local key holding the persisted state of
// the given region.
func RegionStateKey(regionID roachpb.RegionID) []byte {
	return makeKey(LocalMinKey, localRegionStateSuffix, encodeUint64Ascending(uint64(regionID)))
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package keys translates between the logical keys of a region and the
// physical keys stored in the storage engine shared by all regions.
package keys

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
)

func makeKey(keys ...[]byte) []byte {
	return bytes.Join(keys, nil)
}

func encodeUint64Ascending(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// DataKey returns the physical key for a logical key. The result never
// shares memory with key.
func DataKey(key roachpb.Key) []byte {
	dk := make([]byte, 0, len(key)+1)
	dk = append(dk, DataPrefix)
	return append(dk, key...)
}

// IsDataKey returns whether the physical key belongs to the region data
// keyspace.
func IsDataKey(key []byte) bool {
	return len(key) > 0 && key[0] == DataPrefix
}

// DecodeDataKey strips the data prefix from a physical key.
func DecodeDataKey(key []byte) (roachpb.Key, error) {
	if !IsDataKey(key) {
		return nil, errors.Newf("key %q is not a data key", key)
	}
	return roachpb.Key(key[1:]), nil
}

// OriginKey is like DecodeDataKey, but panics if the key is not a data key.
// It is meant for keys read back from an iterator bounded to the data
// keyspace, where a missing prefix indicates a bug.
func OriginKey(key []byte) roachpb.Key {
	k, err := DecodeDataKey(key)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "decoding iterator key"))
	}
	return k
}

// EncStartKey returns the physical start key of the region.
func EncStartKey(desc *roachpb.RegionDescriptor) []byte {
	return DataKey(desc.StartKey)
}

// EncEndKey returns the physical end key of the region. The last region of
// the keyspace has an empty end key, which encodes to DataMaxKey rather than
// to an empty (unbounded) key so that iteration stays within the data
// keyspace.
func EncEndKey(desc *roachpb.RegionDescriptor) []byte {
	if len(desc.EndKey) == 0 {
		return append([]byte(nil), DataMaxKey...)
	}
	return DataKey(desc.EndKey)
}

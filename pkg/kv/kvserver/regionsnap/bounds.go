// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package regionsnap

import (
	"bytes"

	"github.com/cockroachdb/regionsnap/pkg/keys"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
)

// ClipLowerBound returns the physical lower bound of an iteration over desc.
// A non-empty user bound is encoded and raised to the region's start if it
// lies before it. The result is never nil.
func ClipLowerBound(user roachpb.Key, desc *roachpb.RegionDescriptor) []byte {
	start := keys.EncStartKey(desc)
	if len(user) == 0 {
		return start
	}
	if k := keys.DataKey(user); bytes.Compare(k, start) > 0 {
		return k
	}
	return start
}

// ClipUpperBound returns the physical upper bound of an iteration over desc.
// A non-empty user bound is encoded and lowered to the region's end if it
// lies past it. The result is never nil.
func ClipUpperBound(user roachpb.Key, desc *roachpb.RegionDescriptor) []byte {
	end := keys.EncEndKey(desc)
	if len(user) == 0 {
		return end
	}
	if k := keys.DataKey(user); bytes.Compare(k, end) < 0 {
		return k
	}
	return end
}

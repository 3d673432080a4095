// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package roachpb

import (
	"bytes"

	"github.com/cockroachdb/redact"
)

// RegionID is a custom type for a region ID.
type RegionID int64

// SafeValue implements the redact.SafeValue interface.
func (RegionID) SafeValue() {}

// RegionEpoch tracks configuration and key range changes of a region. It is
// carried for diagnostics only; this package never compares epochs.
type RegionEpoch struct {
	// ConfVer is bumped on membership changes.
	ConfVer uint64
	// Version is bumped on splits and merges.
	Version uint64
}

// RegionDescriptor describes the key range [StartKey, EndKey) owned by a
// region. An empty EndKey means the region is the last one in the keyspace.
//
// A descriptor handed to a region snapshot is cloned and never mutated again;
// the live descriptor of a replica is replaced, not modified, on split and
// merge.
type RegionDescriptor struct {
	RegionID RegionID
	StartKey Key
	EndKey   Key
	Epoch    RegionEpoch
}

// Clone returns a deep copy of the descriptor.
func (d *RegionDescriptor) Clone() *RegionDescriptor {
	return &RegionDescriptor{
		RegionID: d.RegionID,
		StartKey: d.StartKey.Clone(),
		EndKey:   d.EndKey.Clone(),
		Epoch:    d.Epoch,
	}
}

// KeySpan returns the key span covered by the region.
func (d *RegionDescriptor) KeySpan() Span {
	return Span{Key: d.StartKey, EndKey: d.EndKey}
}

// ContainsKey returns whether start_key <= key < end_key.
func (d *RegionDescriptor) ContainsKey(key Key) bool {
	return d.KeySpan().ContainsKey(key)
}

// ContainsKeyInclusive returns whether start_key <= key <= end_key. It is
// used for seek targets that look backwards from the exclusive end of the
// region.
func (d *RegionDescriptor) ContainsKeyInclusive(key Key) bool {
	return bytes.Compare(key, d.StartKey) >= 0 &&
		(len(d.EndKey) == 0 || bytes.Compare(key, d.EndKey) <= 0)
}

// SafeFormat implements the redact.SafeFormatter interface.
func (d *RegionDescriptor) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("r%d:{%s}", d.RegionID, d.KeySpan())
	if d.Epoch != (RegionEpoch{}) {
		w.Printf(" [conf_ver=%d version=%d]", d.Epoch.ConfVer, d.Epoch.Version)
	}
}

func (d *RegionDescriptor) String() string {
	return redact.StringWithoutMarkers(d)
}

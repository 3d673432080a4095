// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package roachpb

import (
	"bytes"
	"strconv"

	"github.com/cockroachdb/redact"
)

// Key is a logical key as seen by the callers of a region. It does not carry
// the storage namespace prefix; see package keys for the physical encoding.
type Key []byte

// KeyMin is the minimum key of the logical keyspace.
var KeyMin = Key{}

// Next returns the next key in lexicographic sort order. The method may only
// take a shallow copy of the Key, so both the receiver and the return value
// should be treated as immutable after.
func (k Key) Next() Key {
	return Key(append(k[:len(k):len(k)], 0))
}

// Equal returns whether two keys are identical.
func (k Key) Equal(l Key) bool {
	return bytes.Equal(k, l)
}

// Compare compares the two Keys.
func (k Key) Compare(b Key) int {
	return bytes.Compare(k, b)
}

// Clone returns a copy of the key that does not share memory with the
// receiver. A nil key stays nil.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	c := make(Key, len(k))
	copy(c, k)
	return c
}

// String returns a quoted representation of the key with non-printable bytes
// escaped.
func (k Key) String() string {
	return strconv.Quote(string(k))
}

// SafeFormat implements the redact.SafeFormatter interface. Keys are user
// data and are always considered unsafe.
func (k Key) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(k.String())
}

// Span is a half-open key range [Key, EndKey). An empty EndKey denotes the
// end of the keyspace.
type Span struct {
	Key    Key
	EndKey Key
}

// ContainsKey returns whether the span contains the given key.
func (s Span) ContainsKey(key Key) bool {
	return bytes.Compare(key, s.Key) >= 0 && (len(s.EndKey) == 0 || bytes.Compare(key, s.EndKey) < 0)
}

// Equal compares two spans.
func (s Span) Equal(o Span) bool {
	return s.Key.Equal(o.Key) && s.EndKey.Equal(o.EndKey)
}

// SafeFormat implements the redact.SafeFormatter interface.
func (s Span) SafeFormat(w redact.SafePrinter, _ rune) {
	if len(s.Key) == 0 {
		w.SafeString("/Min")
	} else {
		w.Print(s.Key)
	}
	w.SafeRune('-')
	if len(s.EndKey) == 0 {
		w.SafeString("/Max")
	} else {
		w.Print(s.EndKey)
	}
}

func (s Span) String() string {
	return redact.StringWithoutMarkers(s)
}

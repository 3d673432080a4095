// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package storage

import (
	"bytes"

	"github.com/cockroachdb/errors"
)

// columnFamilies maps column family names to their one-byte namespace.
type columnFamilies struct {
	names []string
	ids   map[string]byte
}

func makeColumnFamilies(names []string) (columnFamilies, error) {
	if len(names) == 0 {
		names = AllCFs
	}
	// Namespace ids must leave room for the exclusive upper bound id+1.
	if len(names) > 255 {
		return columnFamilies{}, errors.Newf("too many column families: %d", len(names))
	}
	cfs := columnFamilies{
		names: append([]string(nil), names...),
		ids:   make(map[string]byte, len(names)),
	}
	for i, name := range names {
		if _, ok := cfs.ids[name]; ok {
			return columnFamilies{}, errors.Newf("duplicate column family %q", name)
		}
		cfs.ids[name] = byte(i)
	}
	return cfs, nil
}

func (c columnFamilies) lookup(name string) (cfKeyspace, error) {
	id, ok := c.ids[name]
	if !ok {
		return cfKeyspace{}, errors.Mark(errors.Newf("column family %q not found", name), ErrColumnFamilyNotFound)
	}
	return cfKeyspace{id: id}, nil
}

// cfKeyspace encodes and decodes the keys of a single column family.
type cfKeyspace struct {
	id byte
}

func (ks cfKeyspace) encode(key []byte) []byte {
	ek := make([]byte, 0, len(key)+1)
	ek = append(ek, ks.id)
	return append(ek, key...)
}

func (ks cfKeyspace) decode(ek []byte) []byte {
	return ek[1:]
}

// bounds returns the engine-level bounds for the physical bounds in opts.
// The result is always bounded on both sides, and empty rather than
// inverted when the lower bound lies past the upper bound.
func (ks cfKeyspace) bounds(opts IterOptions) (lower, upper []byte) {
	if opts.LowerBound != nil {
		lower = ks.encode(opts.LowerBound)
	} else {
		lower = []byte{ks.id}
	}
	if opts.UpperBound != nil {
		upper = ks.encode(opts.UpperBound)
	} else {
		upper = []byte{ks.id + 1}
	}
	if bytes.Compare(lower, upper) > 0 {
		lower = upper
	}
	return lower, upper
}

// clampSeekGE returns the engine key to pass to a forward seek, and false if
// the seek cannot find anything because the key is at or past the upper
// bound.
func clampSeekGE(ek, lower, upper []byte) ([]byte, bool) {
	if bytes.Compare(ek, upper) >= 0 {
		return nil, false
	}
	if bytes.Compare(ek, lower) < 0 {
		return lower, true
	}
	return ek, true
}

// clampSeekLT returns the engine key to pass to a reverse (exclusive) seek,
// and false if the seek cannot find anything because the key is at or before
// the lower bound.
func clampSeekLT(ek, lower, upper []byte) ([]byte, bool) {
	if bytes.Compare(ek, lower) <= 0 {
		return nil, false
	}
	if bytes.Compare(ek, upper) > 0 {
		return upper, true
	}
	return ek, true
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cursor provides a seekable cursor over a region iterator that
// supports reverse seeks to the last key strictly before a target and keeps
// per-cursor access statistics.
package cursor

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
)

// Iterator is the iterator a Cursor moves. *regionsnap.Iterator implements
// it.
type Iterator interface {
	Seek(key roachpb.Key) (bool, error)
	SeekForPrev(key roachpb.Key) (bool, error)
	// CheckSeekKey validates a seek target without moving the iterator.
	CheckSeekKey(key roachpb.Key, inclusive bool) error
	SeekToFirst() (bool, error)
	SeekToLast() (bool, error)
	Next() (bool, error)
	Prev() (bool, error)
	Valid() (bool, error)
	Key() roachpb.Key
	Value() []byte
	Close() error
}

// ScanMode declares the direction a Cursor is used in.
type ScanMode int

const (
	// Forward cursors only seek forward.
	Forward ScanMode = iota
	// Backward cursors only seek backward.
	Backward
	// Mixed cursors seek in both directions.
	Mixed
)

var scanModeNames = [...]string{
	Forward:  "forward",
	Backward: "backward",
	Mixed:    "mixed",
}

func (m ScanMode) String() string {
	if int(m) < len(scanModeNames) {
		return scanModeNames[m]
	}
	return "unknown"
}

// SafeValue implements the redact.SafeValue interface.
func (ScanMode) SafeValue() {}

// Statistics counts the operations performed through a Cursor.
type Statistics struct {
	Seek        int
	SeekForPrev int
	Next        int
	Prev        int
	// Processed counts the values read.
	Processed int
}

// Add adds the counts of o to s.
func (s *Statistics) Add(o Statistics) {
	s.Seek += o.Seek
	s.SeekForPrev += o.SeekForPrev
	s.Next += o.Next
	s.Prev += o.Prev
	s.Processed += o.Processed
}

// SafeFormat implements the redact.SafeFormatter interface.
func (s Statistics) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("seek=%d seek_for_prev=%d next=%d prev=%d processed=%d",
		s.Seek, s.SeekForPrev, s.Next, s.Prev, s.Processed)
}

func (s Statistics) String() string {
	return redact.StringWithoutMarkers(s)
}

// Cursor wraps an Iterator. A Forward or Backward cursor assumes that its
// seek targets are monotonic: it answers a seek from the current position
// when possible and remembers the targets past which nothing was found.
// Targets answered that way are still validated by the iterator.
type Cursor struct {
	iter Iterator
	mode ScanMode

	// Nothing is at or past maxKey, and nothing is before minKey. Only
	// maintained in Forward and Backward mode.
	minKey, maxKey roachpb.Key

	stats Statistics
}

// New creates a Cursor over iter, which it takes ownership of.
func New(iter Iterator, mode ScanMode) *Cursor {
	return &Cursor{iter: iter, mode: mode}
}

// Mode returns the scan mode of the cursor.
func (c *Cursor) Mode() ScanMode {
	return c.mode
}

// Statistics returns the counts of the operations performed so far.
func (c *Cursor) Statistics() Statistics {
	return c.stats
}

// Seek positions the cursor at the first key >= key.
func (c *Cursor) Seek(key roachpb.Key) (bool, error) {
	if c.mode == Backward {
		return false, errors.AssertionFailedf("Seek called on a %s cursor", c.mode)
	}
	if c.mode == Forward {
		if err := c.iter.CheckSeekKey(key, false /* inclusive */); err != nil {
			return false, err
		}
	}
	if c.maxKey != nil && bytes.Compare(c.maxKey, key) <= 0 {
		return false, nil
	}
	if c.mode == Forward {
		valid, err := c.iter.Valid()
		if err != nil {
			return false, err
		}
		if valid && bytes.Compare(c.iter.Key(), key) >= 0 {
			return true, nil
		}
	}
	c.stats.Seek++
	valid, err := c.iter.Seek(key)
	if err != nil {
		return false, err
	}
	if !valid && c.mode == Forward {
		c.maxKey = key.Clone()
	}
	return valid, nil
}

// ReverseSeek positions the cursor at the last key < key.
func (c *Cursor) ReverseSeek(key roachpb.Key) (bool, error) {
	if c.mode == Forward {
		return false, errors.AssertionFailedf("ReverseSeek called on a %s cursor", c.mode)
	}
	if c.mode == Backward {
		if err := c.iter.CheckSeekKey(key, true /* inclusive */); err != nil {
			return false, err
		}
	}
	if c.minKey != nil && bytes.Compare(c.minKey, key) >= 0 {
		return false, nil
	}
	if c.mode == Backward {
		valid, err := c.iter.Valid()
		if err != nil {
			return false, err
		}
		if valid && bytes.Compare(c.iter.Key(), key) < 0 {
			return true, nil
		}
	}
	c.stats.SeekForPrev++
	valid, err := c.iter.SeekForPrev(key)
	if err != nil {
		return false, err
	}
	if !valid {
		if c.mode == Backward {
			c.minKey = key.Clone()
		}
		return false, nil
	}
	if bytes.Equal(c.iter.Key(), key) {
		return c.Prev()
	}
	return true, nil
}

// SeekToFirst positions the cursor at the first key.
func (c *Cursor) SeekToFirst() (bool, error) {
	c.stats.Seek++
	return c.iter.SeekToFirst()
}

// SeekToLast positions the cursor at the last key.
func (c *Cursor) SeekToLast() (bool, error) {
	c.stats.SeekForPrev++
	return c.iter.SeekToLast()
}

// Next moves to the next key.
func (c *Cursor) Next() (bool, error) {
	c.stats.Next++
	return c.iter.Next()
}

// Prev moves to the previous key.
func (c *Cursor) Prev() (bool, error) {
	c.stats.Prev++
	return c.iter.Prev()
}

// Valid returns whether the cursor is positioned at a key.
func (c *Cursor) Valid() (bool, error) {
	return c.iter.Valid()
}

// Key returns the current key.
func (c *Cursor) Key() roachpb.Key {
	return c.iter.Key()
}

// Value returns the current value.
func (c *Cursor) Value() []byte {
	c.stats.Processed++
	return c.iter.Value()
}

// Close closes the underlying iterator.
func (c *Cursor) Close() error {
	return c.iter.Close()
}

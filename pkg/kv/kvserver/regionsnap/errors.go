// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package regionsnap

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
)

// KeyNotInRegionError is returned when a read addresses a key outside of the
// region of the snapshot it was issued against.
type KeyNotInRegionError struct {
	Key    roachpb.Key
	Region *roachpb.RegionDescriptor
}

var _ errors.SafeFormatter = (*KeyNotInRegionError)(nil)

// NewKeyNotInRegionError creates a KeyNotInRegionError. The descriptor is
// copied.
func NewKeyNotInRegionError(key roachpb.Key, desc *roachpb.RegionDescriptor) *KeyNotInRegionError {
	return &KeyNotInRegionError{Key: key.Clone(), Region: desc.Clone()}
}

func (e *KeyNotInRegionError) Error() string { return fmt.Sprint(e) }

// Format implements fmt.Formatter.
func (e *KeyNotInRegionError) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// SafeFormatError implements errors.SafeFormatter.
func (e *KeyNotInRegionError) SafeFormatError(p errors.Printer) (next error) {
	p.Printf("key %s is not in region %s", e.Key, e.Region)
	return nil
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package health holds process health state that is observed by external
// health checks.
package health

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
	"github.com/spf13/afero"
)

// MarkFileName is the name of the file persisting the corruption mark.
const MarkFileName = "CORRUPTION_MARK"

// ErrCorruptionMarked is returned by Check once the mark is set.
var ErrCorruptionMarked = errors.New("store is marked as corrupted")

// CorruptionMark is a sticky flag recording that data corruption (or a
// routing failure indistinguishable from it) was detected. Once set it is
// never cleared by the process itself. When constructed with a directory the
// mark is also written to disk, so that it outlives the process that set it;
// Load picks it up on the next start.
//
// A CorruptionMark is safe for concurrent use.
type CorruptionMark struct {
	fs   afero.Fs
	path string

	set atomic.Bool
	mu  struct {
		sync.Mutex
		reason string
	}
}

// NewCorruptionMark creates a mark persisted in dir on fs. An empty dir keeps
// the mark in memory only.
func NewCorruptionMark(fs afero.Fs, dir string) *CorruptionMark {
	m := &CorruptionMark{fs: fs}
	if dir != "" {
		m.path = filepath.Join(dir, MarkFileName)
	}
	return m
}

// Path returns the location of the mark file, or "" if the mark is not
// persisted.
func (m *CorruptionMark) Path() string {
	return m.path
}

// Set marks the process as having observed corruption. The in-memory flag is
// set even if persisting the mark fails; the returned error only reports the
// persistence failure.
func (m *CorruptionMark) Set(ctx context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set.Load() {
		return nil
	}
	m.mu.reason = reason
	m.set.Store(true)
	if m.path == "" {
		return nil
	}
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", m.path)
	}
	if err := afero.WriteFile(m.fs, m.path, []byte(reason), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", m.path)
	}
	log.Warningf(ctx, "corruption mark written to %s", m.path)
	return nil
}

// IsSet returns whether the mark has been set.
func (m *CorruptionMark) IsSet() bool {
	return m.set.Load()
}

// Reason returns the reason recorded when the mark was set.
func (m *CorruptionMark) Reason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mu.reason
}

// Load reads a mark persisted by an earlier process. It returns whether a
// mark was found.
func (m *CorruptionMark) Load(ctx context.Context) (bool, error) {
	if m.path == "" {
		return m.IsSet(), nil
	}
	ok, err := afero.Exists(m.fs, m.path)
	if err != nil {
		return false, errors.Wrapf(err, "checking %s", m.path)
	}
	if !ok {
		return m.IsSet(), nil
	}
	reason, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return false, errors.Wrapf(err, "reading %s", m.path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set.Load() {
		m.mu.reason = string(reason)
		m.set.Store(true)
	}
	log.Warningf(ctx, "found corruption mark at %s: %s", m.path, string(reason))
	return true, nil
}

// Check returns an error wrapping ErrCorruptionMarked if the mark is set.
func (m *CorruptionMark) Check() error {
	if !m.IsSet() {
		return nil
	}
	return errors.Wrapf(ErrCorruptionMarked, "%s", m.Reason())
}

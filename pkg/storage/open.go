// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/regionsnap/pkg/base"
)

// Open opens the storage engine described by cfg.
func Open(ctx context.Context, cfg base.StorageConfig) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Engine {
	case base.EnginePebble:
		pcfg := PebbleConfig{
			Dir:            cfg.Dir,
			CacheSize:      cfg.CacheSizeBytes,
			ColumnFamilies: cfg.ColumnFamilies,
		}
		if cfg.InMemory {
			pcfg.Dir, pcfg.FS = "", vfs.NewMem()
		}
		return NewPebble(ctx, pcfg)
	case base.EngineLevelDB:
		return NewLevelDB(ctx, LevelDBConfig{
			Dir:            cfg.Dir,
			InMemory:       cfg.InMemory,
			CacheSize:      cfg.CacheSizeBytes,
			ColumnFamilies: cfg.ColumnFamilies,
		})
	default:
		return nil, errors.AssertionFailedf("unhandled storage engine %q", cfg.Engine)
	}
}

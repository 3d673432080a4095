// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package base

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

const (
	// EnginePebble selects the pebble storage engine.
	EnginePebble = "pebble"
	// EngineLevelDB selects the goleveldb storage engine.
	EngineLevelDB = "leveldb"

	// DefaultCacheSize is the default size of the engine block cache.
	DefaultCacheSize = 64 << 20
)

// DefaultColumnFamilies are the column families created when the
// configuration does not name any.
var DefaultColumnFamilies = []string{"default", "lock", "write", "raft"}

// Config is the top-level configuration of a store.
type Config struct {
	Storage        StorageConfig        `yaml:"storage"`
	RegionSnapshot RegionSnapshotConfig `yaml:"region-snapshot"`
}

// StorageConfig configures the storage engine shared by all regions.
type StorageConfig struct {
	// Engine is the name of the storage engine, EnginePebble or
	// EngineLevelDB.
	Engine string `yaml:"engine"`
	// Dir is the directory holding the engine files. It is ignored when
	// InMemory is set.
	Dir string `yaml:"dir"`
	// InMemory keeps all engine data in memory.
	InMemory bool `yaml:"in-memory"`
	// ColumnFamilies lists the column families of the engine. Requests
	// naming any other column family fail.
	ColumnFamilies []string `yaml:"column-families"`
	// CacheSizeBytes is the size of the engine block cache.
	CacheSizeBytes int64 `yaml:"cache-size-bytes"`
}

// RegionSnapshotConfig configures the region read path.
type RegionSnapshotConfig struct {
	// FailFastOnUnexpectedKey terminates the process when a read targets a
	// key outside the region it was addressed to, instead of returning an
	// error. Enable it where data integrity outranks availability.
	FailFastOnUnexpectedKey bool `yaml:"fail-fast-on-unexpected-key"`
	// CorruptionMarkDir is the directory in which the corruption mark is
	// persisted before a fail-fast termination. Empty keeps the mark in
	// memory only.
	CorruptionMarkDir string `yaml:"corruption-mark-dir"`
}

// DefaultConfig returns a configuration with all defaults filled in.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Engine:         EnginePebble,
			ColumnFamilies: append([]string(nil), DefaultColumnFamilies...),
			CacheSizeBytes: DefaultCacheSize,
		},
	}
}

// LoadConfig reads a YAML configuration file. Fields absent from the file
// keep their default values; unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	return c.Storage.Validate()
}

// Validate checks the storage configuration for consistency.
func (c *StorageConfig) Validate() error {
	switch c.Engine {
	case EnginePebble, EngineLevelDB:
	default:
		return errors.Newf("unknown storage engine %q", c.Engine)
	}
	if !c.InMemory && c.Dir == "" {
		return errors.New("storage dir must be set unless in-memory is enabled")
	}
	if len(c.ColumnFamilies) == 0 {
		return errors.New("at least one column family is required")
	}
	if len(c.ColumnFamilies) > 255 {
		return errors.Newf("too many column families: %d", len(c.ColumnFamilies))
	}
	seen := make(map[string]struct{}, len(c.ColumnFamilies))
	for _, cf := range c.ColumnFamilies {
		if cf == "" {
			return errors.New("column family names must not be empty")
		}
		if _, ok := seen[cf]; ok {
			return errors.Newf("duplicate column family %q", cf)
		}
		seen[cf] = struct{}{}
	}
	if c.CacheSizeBytes < 0 {
		return errors.Newf("cache size must not be negative: %d", c.CacheSizeBytes)
	}
	return nil
}

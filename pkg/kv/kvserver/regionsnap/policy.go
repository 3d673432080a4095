// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package regionsnap

import (
	"context"
	"time"

	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/regionsnap/pkg/base"
	"github.com/cockroachdb/regionsnap/pkg/roachpb"
	"github.com/cockroachdb/regionsnap/pkg/server/health"
	"github.com/cockroachdb/regionsnap/pkg/util/log"
	"github.com/cockroachdb/regionsnap/pkg/util/metric"
	"github.com/spf13/afero"
)

// CriticalErrorKeyNotInRegion is the critical error label recorded when a
// read addresses a key outside of its region.
const CriticalErrorKeyNotInRegion = "key not in region"

// CriticalErrorRecorder counts critical errors by type.
// *metric.CounterVec implements it.
type CriticalErrorRecorder interface {
	Inc(labelValues ...string)
}

var metaCriticalErrors = metric.Metadata{
	Name: "regionsnap_critical_error_total",
	Help: "Number of critical errors observed by region snapshots, by type",
}

// Metrics holds the metrics of the region snapshot layer.
type Metrics struct {
	CriticalErrors *metric.CounterVec
}

// MakeMetrics creates the metrics of the region snapshot layer.
func MakeMetrics() Metrics {
	return Metrics{
		CriticalErrors: metric.NewCounterVec(metaCriticalErrors, "type"),
	}
}

// CorruptionPolicy decides what happens when a read addresses a key outside
// of its region. Such a read means that the request was routed to the wrong
// region, which cannot be told apart from corrupted routing metadata.
//
// A nil *CorruptionPolicy returns errors and records nothing.
type CorruptionPolicy struct {
	// FailFast terminates the process instead of returning an error.
	FailFast bool
	// CriticalErrors, if set, counts every occurrence.
	CriticalErrors CriticalErrorRecorder
	// Mark, if set, is set before the process terminates.
	Mark *health.CorruptionMark
}

// MakePolicy builds the policy described by cfg. The corruption mark is
// persisted on fs when cfg names a directory, and a mark left there by an
// earlier process is loaded.
func MakePolicy(
	ctx context.Context, cfg base.RegionSnapshotConfig, fs afero.Fs, rec CriticalErrorRecorder,
) (*CorruptionPolicy, error) {
	mark := health.NewCorruptionMark(fs, cfg.CorruptionMarkDir)
	if _, err := mark.Load(ctx); err != nil {
		return nil, err
	}
	return &CorruptionPolicy{
		FailFast:       cfg.FailFastOnUnexpectedKey,
		CriticalErrors: rec,
		Mark:           mark,
	}, nil
}

var keyNotInRegionLogLimiter = log.Every(10 * time.Second)

// OnKeyNotInRegion handles a read of key against desc, which does not contain
// it. It returns a *KeyNotInRegionError unless the policy is fail-fast, in
// which case the process is terminated.
func (p *CorruptionPolicy) OnKeyNotInRegion(
	ctx context.Context, key roachpb.Key, desc *roachpb.RegionDescriptor,
) error {
	err := NewKeyNotInRegionError(key, desc)
	if p == nil {
		return err
	}
	if p.CriticalErrors != nil {
		p.CriticalErrors.Inc(CriticalErrorKeyNotInRegion)
	}
	if !p.FailFast {
		if keyNotInRegionLogLimiter.ShouldLog() {
			log.Warningf(ctx, "%v", err)
		}
		return err
	}
	if p.Mark != nil {
		if markErr := p.Mark.Set(ctx, redact.Sprint(err).StripMarkers()); markErr != nil {
			log.Errorf(ctx, "unable to persist corruption mark: %v", markErr)
		}
	}
	log.Fatalf(ctx, "%v", err)
	// Only reached when the exit function is overridden in tests.
	return err
}

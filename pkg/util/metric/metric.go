// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metadata holds metadata about a metric.
type Metadata struct {
	Name string
	Help string
}

// Iterable is implemented by every metric in this package.
type Iterable interface {
	prometheus.Collector
	// GetName returns the fully-qualified name of the metric.
	GetName() string
}

// CounterVec is a set of monotonically increasing counters partitioned by
// label values.
type CounterVec struct {
	Metadata
	labels []string
	vec    *prometheus.CounterVec
}

var _ Iterable = (*CounterVec)(nil)

// NewCounterVec creates a counter vector with the given label names.
func NewCounterVec(metadata Metadata, labels ...string) *CounterVec {
	return &CounterVec{
		Metadata: metadata,
		labels:   labels,
		vec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metadata.Name,
			Help: metadata.Help,
		}, labels),
	}
}

// GetName implements Iterable.
func (c *CounterVec) GetName() string { return c.Name }

// Describe implements prometheus.Collector.
func (c *CounterVec) Describe(ch chan<- *prometheus.Desc) { c.vec.Describe(ch) }

// Collect implements prometheus.Collector.
func (c *CounterVec) Collect(ch chan<- prometheus.Metric) { c.vec.Collect(ch) }

// Inc increments the counter identified by the label values by one. The
// number of label values must match the labels the vector was created with.
func (c *CounterVec) Inc(labelValues ...string) {
	c.vec.WithLabelValues(labelValues...).Inc()
}

// Count returns the current value of the counter identified by the label
// values.
func (c *CounterVec) Count(labelValues ...string) int64 {
	var m dto.Metric
	if err := c.vec.WithLabelValues(labelValues...).Write(&m); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "reading counter %s", c.Name))
	}
	return int64(m.GetCounter().GetValue())
}

// Registry exports a set of metrics.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// Register adds the metric to the registry.
func (r *Registry) Register(m Iterable) error {
	if err := r.reg.Register(m); err != nil {
		return errors.Wrapf(err, "registering metric %s", m.GetName())
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(m Iterable) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Gatherer returns the underlying prometheus gatherer, for use by an
// exporter.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

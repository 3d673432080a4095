// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

/*
Package metric provides process metrics for the storage layer. Metrics are
backed by the Prometheus client library and exported through a Registry.

# Adding a new metric

Describe the metric with a Metadata value and construct it:

	var metaCriticalErrors = metric.Metadata{
		Name: "regionsnap_critical_error_total",
		Help: "Number of critical errors observed on the region read path",
	}

	m := Metrics{CriticalErrors: metric.NewCounterVec(metaCriticalErrors, "type")}

then register it so that it is exported:

	registry.MustRegister(m.CriticalErrors)

Components that only need to bump a metric should accept a narrow interface
rather than the concrete metric type, so that tests can substitute a fake.
*/
package metric

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package metric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterVec(t *testing.T) {
	c := NewCounterVec(Metadata{Name: "test_errors_total", Help: "help"}, "type")
	require.Equal(t, int64(0), c.Count("a"))
	c.Inc("a")
	c.Inc("a")
	c.Inc("b")
	require.Equal(t, int64(2), c.Count("a"))
	require.Equal(t, int64(1), c.Count("b"))
	require.Equal(t, "test_errors_total", c.GetName())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	c := NewCounterVec(Metadata{Name: "test_errors_total", Help: "help"}, "type")
	require.NoError(t, r.Register(c))
	c.Inc("x")

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "test_errors_total", families[0].GetName())
	require.Equal(t, 1.0, families[0].GetMetric()[0].GetCounter().GetValue())

	// Registering the same metric twice fails.
	require.Error(t, r.Register(c))
}

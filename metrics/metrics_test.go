package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()
	reg := prometheus.NewRegistry()
	c.MustRegister(reg)

	c.ObserveLookup("json", "write", false)
	c.ObserveLookup("json", "write", true)
	c.ObserveLookup("json", "write", true)
	c.ObserveBuild("json", "write", time.Millisecond, nil)
	c.ObserveBuild("jsv", "read", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Lookups.WithLabelValues("json", "write", ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Lookups.WithLabelValues("json", "write", ResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Builds.WithLabelValues("jsv", "read", ResultError)))

	n, err := testutil.GatherAndCount(reg, "typetext_dispatch_build_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveLookup("json", "read", true)
		c.ObserveBuild("json", "read", time.Second, nil)
	})
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorDefaults(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "adaptivecache", c.config.Namespace)
	assert.True(t, c.config.Enabled)
}

func TestDisabledCollectorIsInert(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: false})
	require.NoError(t, err)

	// None of these should panic on a disabled collector.
	c.RecordHit()
	c.RecordMiss()
	c.RecordEviction()
	c.RecordPreload(true)
	c.ObserveGetLatency(time.Millisecond)
	c.SetUsage(1024, 3)
}

func TestCountersAccumulate(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: true, Namespace: "testcache"})
	require.NoError(t, err)

	c.RecordHit()
	c.RecordHit()
	c.RecordMiss()
	c.RecordEviction()
	c.RecordPreload(true)
	c.RecordPreload(false)

	hits := testutil.ToFloat64(c.accessCounter.WithLabelValues("hit"))
	misses := testutil.ToFloat64(c.accessCounter.WithLabelValues("miss"))
	assert.Equal(t, 2.0, hits)
	assert.Equal(t, 1.0, misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evictionTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.preloadCounter.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.preloadCounter.WithLabelValues("failure")))
}

func TestUsageGauges(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: true, Namespace: "testcache"})
	require.NoError(t, err)

	c.SetUsage(4096, 7)
	assert.Equal(t, 4096.0, testutil.ToFloat64(c.sizeGauge))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.entryGauge))

	c.SetUsage(0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.sizeGauge))
}

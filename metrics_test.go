package taskloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_DepthEMA(t *testing.T) {
	m := NewMetrics(0.5, 8)
	m.RecordDepth(10)
	assert.Equal(t, 10.0, m.DepthEMA())

	m.RecordDepth(0)
	assert.Equal(t, 5.0, m.DepthEMA())
}

func TestMetrics_NewMetrics_ClampsInvalidArgs(t *testing.T) {
	m := NewMetrics(-1, -1)
	assert.Equal(t, 0.2, m.depthAlpha)
	assert.Equal(t, 256, m.latencyCap)
}

func TestMetrics_LatencyPercentile_EmptyIsZero(t *testing.T) {
	m := NewMetrics(0.5, 8)
	assert.Equal(t, time.Duration(0), m.LatencyPercentile(50))
}

func TestMetrics_LatencyPercentile_SortsSamples(t *testing.T) {
	m := NewMetrics(0.5, 8)
	for _, d := range []time.Duration{5 * time.Millisecond, 1 * time.Millisecond, 3 * time.Millisecond} {
		m.RecordStep(true, d, time.Unix(0, 0))
	}
	assert.Equal(t, time.Millisecond, m.LatencyPercentile(0))
	assert.Equal(t, 5*time.Millisecond, m.LatencyPercentile(100))
}

func TestMetrics_LatencyBuffer_WrapsAtCapacity(t *testing.T) {
	m := NewMetrics(0.5, 2)
	now := time.Unix(0, 0)
	m.RecordStep(true, time.Millisecond, now)
	m.RecordStep(true, 2*time.Millisecond, now)
	m.RecordStep(true, 3*time.Millisecond, now)
	assert.Len(t, m.latencySamples, 2)
	assert.Equal(t, 3*time.Millisecond, m.LatencyPercentile(100))
	assert.Equal(t, 2*time.Millisecond, m.LatencyPercentile(0))
}

func TestMetrics_TPS_CountsOnlyProgressedSteps(t *testing.T) {
	m := NewMetrics(0.5, 8)
	now := time.Unix(100, 0)
	m.RecordStep(true, time.Millisecond, now)
	m.RecordStep(false, time.Millisecond, now)
	m.RecordStep(true, time.Millisecond, now)
	assert.Greater(t, m.TPS(now), 0.0)
}

func TestTpsCounter_RateWindowsOutOldBuckets(t *testing.T) {
	var c tpsCounter
	base := time.Unix(1000, 0)
	c.record(base)
	assert.Greater(t, c.rate(base), 0.0)

	// Advance well beyond the trailing window; the bucket should no
	// longer contribute.
	later := base.Add(5 * time.Second)
	assert.Equal(t, 0.0, c.rate(later))
}

func TestTpsCounter_ReusesSlotAcrossBucketBoundary(t *testing.T) {
	var c tpsCounter
	base := time.Unix(2000, 0)
	c.record(base)
	// A full tpsBucketCount*tpsBucketWidth later, the slot index repeats
	// but the bucket timestamp differs, so the old count must be reset.
	wrapped := base.Add(tpsBucketCount * tpsBucketWidth)
	c.record(wrapped)
	slot, _ := c.bucketIndex(wrapped)
	assert.Equal(t, uint64(1), c.buckets[slot])
}

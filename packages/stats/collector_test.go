package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record(100*time.Millisecond, true)
	c.Record(150*time.Millisecond, true)
	c.Record(50*time.Millisecond, false)

	summary := c.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, summary.RunID, c.RunID())
}

func TestCollectorPercentiles(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 100; i++ {
		c.Record(time.Duration(i+1)*time.Millisecond, true)
	}

	summary := c.Summary()

	// Percentiles should be close to expected values
	// (within histogram precision)
	assert.InDelta(t, 50, summary.P50.Milliseconds(), 2)
	assert.InDelta(t, 95, summary.P95.Milliseconds(), 2)
	assert.InDelta(t, 99, summary.P99.Milliseconds(), 2)
	assert.InDelta(t, 1, summary.Min.Milliseconds(), 1)
	assert.InDelta(t, 100, summary.Max.Milliseconds(), 2)
}

func TestCollectorEmpty(t *testing.T) {
	c := NewCollector()

	summary := c.Summary()
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, time.Duration(0), summary.Min)
	assert.Equal(t, time.Duration(0), summary.Max)
}

func TestCollectorClampsOutOfRange(t *testing.T) {
	c := NewCollector()

	c.Record(0, true)
	c.Record(5*time.Minute, false)

	summary := c.Summary()
	assert.Equal(t, 2, summary.Total)
	assert.LessOrEqual(t, summary.Max, 61*time.Second)
}

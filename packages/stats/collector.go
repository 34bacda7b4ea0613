package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"
)

// Collector aggregates per-step outcomes over a single run.
type Collector struct {
	mu        sync.Mutex
	runID     string
	started   time.Time
	histogram *hdrhistogram.Histogram
	total     int
	passed    int
	failed    int
}

func NewCollector() *Collector {
	return &Collector{
		runID:   uuid.New().String(),
		started: time.Now(),
		// Histogram: 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

// RunID identifies this run across all output that mentions it.
func (c *Collector) RunID() string {
	return c.runID
}

// Record folds one finished step into the totals.
func (c *Collector) Record(duration time.Duration, passed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if passed {
		c.passed++
	} else {
		c.failed++
	}

	latencyUs := duration.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > 60_000_000 {
		latencyUs = 60_000_000
	}
	_ = c.histogram.RecordValue(latencyUs)
}

// Summary is the final accounting of a run.
type Summary struct {
	RunID    string
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
}

func (c *Collector) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := &Summary{
		RunID:    c.runID,
		Total:    c.total,
		Passed:   c.passed,
		Failed:   c.failed,
		Duration: time.Since(c.started),
		P50:      time.Duration(c.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:      time.Duration(c.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:      time.Duration(c.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Mean:     time.Duration(c.histogram.Mean()) * time.Microsecond,
	}
	if c.total > 0 {
		summary.Min = time.Duration(c.histogram.Min()) * time.Microsecond
		summary.Max = time.Duration(c.histogram.Max()) * time.Microsecond
	}
	return summary
}

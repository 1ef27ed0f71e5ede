// Package metrics records request latency in an HDR histogram.
package metrics

import (
	"sync"
	"time"

	"handmade-kart/internal/model"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyRecorder accumulates request durations. It is safe for concurrent use.
type LatencyRecorder struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	maxValue  int64
}

// NewLatencyRecorder tracks durations from 1µs to 1 minute at 3 significant figures.
func NewLatencyRecorder() *LatencyRecorder {
	maxValue := int64(time.Minute / time.Microsecond)
	return &LatencyRecorder{
		histogram: hdrhistogram.New(1, maxValue, 3),
		maxValue:  maxValue,
	}
}

// Record adds one observation. Values outside the trackable range are clamped.
func (r *LatencyRecorder) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > r.maxValue {
		us = r.maxValue
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.histogram.RecordValue(us)
}

// Snapshot returns the current percentiles in milliseconds.
func (r *LatencyRecorder) Snapshot() model.LatencySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.LatencySnapshot{
		Count: r.histogram.TotalCount(),
		P50:   toMillis(r.histogram.ValueAtQuantile(50)),
		P95:   toMillis(r.histogram.ValueAtQuantile(95)),
		P99:   toMillis(r.histogram.ValueAtQuantile(99)),
		Max:   toMillis(r.histogram.Max()),
	}
}

// Reset clears all observations.
func (r *LatencyRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histogram.Reset()
}

func toMillis(us int64) float64 {
	return float64(us) / 1000
}

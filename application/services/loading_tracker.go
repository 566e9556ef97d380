package services

import (
	"sync/atomic"

	"taxonomy/application/ports"
)

// LoadingTracker counts mutations that are waiting on remote work. One
// tracker is shared by every session in the process.
type LoadingTracker struct {
	inFlight atomic.Int64
	metrics  ports.Metrics
}

// NewLoadingTracker creates a tracker that mirrors its count into metrics
func NewLoadingTracker(metrics ports.Metrics) *LoadingTracker {
	return &LoadingTracker{metrics: metrics}
}

// Begin marks one mutation as started and returns the function that ends it
func (t *LoadingTracker) Begin() func() {
	t.report(t.inFlight.Add(1))
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			t.report(t.inFlight.Add(-1))
		}
	}
}

// Loading reports whether any mutation is in flight
func (t *LoadingTracker) Loading() bool {
	return t.inFlight.Load() > 0
}

// InFlight returns the number of mutations in flight
func (t *LoadingTracker) InFlight() int {
	return int(t.inFlight.Load())
}

func (t *LoadingTracker) report(n int64) {
	if t.metrics != nil {
		t.metrics.SetInFlight(int(n))
	}
}

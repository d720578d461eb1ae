package xmalloc

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    allocCounter   prometheus.Counter
//	    allocHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAllocate(size int, duration time.Duration, err error) {
//	    p.allocCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
//
// Methods are called on the allocation hot path, possibly with an arena
// locked, and must not call back into the allocator.
type MetricsCollector interface {
	// RecordAllocate is called after each allocate operation.
	// size is the requested byte count, err is nil if successful.
	RecordAllocate(size int, duration time.Duration, err error)

	// RecordDeallocate is called after each deallocate operation.
	RecordDeallocate(duration time.Duration, err error)

	// RecordReallocate is called after each reallocate operation.
	// size is the new requested byte count.
	RecordReallocate(size int, duration time.Duration, err error)

	// RecordPageMapped is called whenever an arena ring gains a page.
	RecordPageMapped(arena, slotSize int)

	// RecordContention is called when an allocation missed at least one
	// non-blocking lock attempt. blocked is true if it fell back to a
	// blocking acquire of its home arena.
	RecordContention(misses int, blocked bool)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAllocate(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordDeallocate(time.Duration, error)      {}
func (NoopMetricsCollector) RecordReallocate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPageMapped(int, int)                  {}
func (NoopMetricsCollector) RecordContention(int, bool)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocateCount      atomic.Int64
	AllocateErrors     atomic.Int64
	AllocateBytes      atomic.Int64
	AllocateTotalNanos atomic.Int64
	DeallocateCount    atomic.Int64
	DeallocateErrors   atomic.Int64
	ReallocateCount    atomic.Int64
	ReallocateErrors   atomic.Int64
	PagesMapped        atomic.Int64
	ContendedAllocs    atomic.Int64
	ContentionMisses   atomic.Int64
	BlockingFallbacks  atomic.Int64
}

// RecordAllocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocate(size int, duration time.Duration, err error) {
	b.AllocateCount.Add(1)
	b.AllocateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AllocateErrors.Add(1)
		return
	}
	b.AllocateBytes.Add(int64(size))
}

// RecordDeallocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDeallocate(duration time.Duration, err error) {
	b.DeallocateCount.Add(1)
	if err != nil {
		b.DeallocateErrors.Add(1)
	}
}

// RecordReallocate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReallocate(size int, duration time.Duration, err error) {
	b.ReallocateCount.Add(1)
	if err != nil {
		b.ReallocateErrors.Add(1)
	}
}

// RecordPageMapped implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPageMapped(arena, slotSize int) {
	b.PagesMapped.Add(1)
}

// RecordContention implements MetricsCollector.
func (b *BasicMetricsCollector) RecordContention(misses int, blocked bool) {
	b.ContendedAllocs.Add(1)
	b.ContentionMisses.Add(int64(misses))
	if blocked {
		b.BlockingFallbacks.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocateCount:     b.AllocateCount.Load(),
		AllocateErrors:    b.AllocateErrors.Load(),
		AllocateBytes:     b.AllocateBytes.Load(),
		AllocateAvgNanos:  b.getAvgAllocateNanos(),
		DeallocateCount:   b.DeallocateCount.Load(),
		DeallocateErrors:  b.DeallocateErrors.Load(),
		ReallocateCount:   b.ReallocateCount.Load(),
		ReallocateErrors:  b.ReallocateErrors.Load(),
		PagesMapped:       b.PagesMapped.Load(),
		ContendedAllocs:   b.ContendedAllocs.Load(),
		ContentionMisses:  b.ContentionMisses.Load(),
		BlockingFallbacks: b.BlockingFallbacks.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAllocateNanos() int64 {
	count := b.AllocateCount.Load()
	if count == 0 {
		return 0
	}
	return b.AllocateTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocateCount     int64
	AllocateErrors    int64
	AllocateBytes     int64
	AllocateAvgNanos  int64
	DeallocateCount   int64
	DeallocateErrors  int64
	ReallocateCount   int64
	ReallocateErrors  int64
	PagesMapped       int64
	ContendedAllocs   int64
	ContentionMisses  int64
	BlockingFallbacks int64
}

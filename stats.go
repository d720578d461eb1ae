package xmalloc

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/xmalloc/internal/page"
	"github.com/hupe1980/xmalloc/internal/sizeclass"
)

// ClassStats describes the pages of one size class across all arenas.
type ClassStats struct {
	SlotSize int
	Pages    int // ring pages currently mapped
	InUse    int // slots handed out and not yet freed
	Capacity int // total slots across Pages
}

// Stats is a snapshot of allocator state.
//
// Note on semantics:
//   - BytesMapped: everything currently mapped, ring pages and large blocks
//   - PeakBytesMapped: historical maximum of BytesMapped
//   - LargeBlocks/LargeBytes: outstanding large blocks and their mapped size
//   - TryLockMisses: failed non-blocking arena lock attempts (historical)
//   - BlockingFallbacks: allocations that blocked on their home arena after failed TryLocks (historical)
//   - LiveBlocks: outstanding blocks as seen by the debug tracker (0 unless WithDebug)
type Stats struct {
	PagesMapped       int
	BytesMapped       int64
	PeakBytesMapped   int64
	MemoryLimit       int64
	LargeBlocks       int64
	LargeBytes        int64
	TryLockMisses     int64
	BlockingFallbacks int64
	LiveBlocks        uint64
	Classes           [sizeclass.Count]ClassStats
}

// SlotsInUse returns the number of outstanding bucketed slots.
func (s Stats) SlotsInUse() int {
	n := 0
	for _, c := range s.Classes {
		n += c.InUse
	}
	return n
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Allocator{pages: %d, mapped: %s, peak: %s, large: %d (%s), slots: %d, misses: %d, fallbacks: %d}",
		s.PagesMapped,
		humanize.IBytes(uint64(max(s.BytesMapped, 0))),
		humanize.IBytes(uint64(max(s.PeakBytesMapped, 0))),
		s.LargeBlocks,
		humanize.IBytes(uint64(max(s.LargeBytes, 0))),
		s.SlotsInUse(),
		s.TryLockMisses,
		s.BlockingFallbacks,
	)
	return b.String()
}

type atomicStats struct {
	LargeBlocks       atomic.Int64
	LargeBytes        atomic.Int64
	TryLockMisses     atomic.Int64
	BlockingFallbacks atomic.Int64
}

// Stats returns the current allocator statistics. It briefly locks every
// arena in turn.
func (a *Allocator) Stats() Stats {
	s := Stats{
		BytesMapped:       a.rc.MemoryUsage(),
		PeakBytesMapped:   a.rc.PeakMemoryUsage(),
		MemoryLimit:       a.rc.MemoryLimit(),
		LargeBlocks:       a.stats.LargeBlocks.Load(),
		LargeBytes:        a.stats.LargeBytes.Load(),
		TryLockMisses:     a.stats.TryLockMisses.Load(),
		BlockingFallbacks: a.stats.BlockingFallbacks.Load(),
	}
	if a.tracker != nil {
		s.LiveBlocks = a.tracker.Live()
	}
	for c, cs := range a.dir.Stats() {
		l := page.ClassLayout(sizeclass.Class(c))
		s.Classes[c] = ClassStats{
			SlotSize: l.SlotSize,
			Pages:    cs.Pages,
			InUse:    cs.InUse,
			Capacity: cs.Pages * l.SlotCount,
		}
		s.PagesMapped += cs.Pages
	}
	return s
}

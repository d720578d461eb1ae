package tracker

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Status classifies an address passed to Release.
type Status int

const (
	// Unknown addresses were never handed out.
	Unknown Status = iota
	// Live addresses were handed out and not yet released.
	Live
	// Stale addresses were released already.
	Stale
)

func (s Status) String() string {
	switch s {
	case Live:
		return "live"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	live     *roaring64.Bitmap
	released *roaring64.Bitmap
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		live:     roaring64.New(),
		released: roaring64.New(),
	}
}

// Allocated records addr as handed out.
func (t *Tracker) Allocated(addr uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.live.Add(uint64(addr))
	t.released.Remove(uint64(addr))
}

// Check classifies addr without changing state.
func (t *Tracker) Check(addr uintptr) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status(uint64(addr))
}

// Release classifies addr and, if it is live, marks it released.
func (t *Tracker) Release(addr uintptr) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	a := uint64(addr)
	s := t.status(a)
	if s == Live {
		t.live.Remove(a)
		t.released.Add(a)
	}
	return s
}

func (t *Tracker) status(a uint64) Status {
	switch {
	case t.live.Contains(a):
		return Live
	case t.released.Contains(a):
		return Stale
	default:
		return Unknown
	}
}

// Live returns the number of blocks currently handed out.
func (t *Tracker) Live() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live.GetCardinality()
}

// Reset forgets every address.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live.Clear()
	t.released.Clear()
}

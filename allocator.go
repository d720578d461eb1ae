package xmalloc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hupe1980/xmalloc/internal/arena"
	"github.com/hupe1980/xmalloc/internal/mmap"
	"github.com/hupe1980/xmalloc/internal/page"
	"github.com/hupe1980/xmalloc/internal/resource"
	"github.com/hupe1980/xmalloc/internal/sizeclass"
	"github.com/hupe1980/xmalloc/internal/tracker"
)

const (
	// PageSize is the size and alignment of every slab page.
	PageSize = page.Size
	// HeaderSize is the per-page header, also reserved at the start of
	// every large block.
	HeaderSize = page.HeaderSize
	// MaxClassSize is the largest request served from slab pages. Larger
	// requests get a dedicated mapping.
	MaxClassSize = sizeclass.MaxSize
	// NumArenas is the number of independent arenas.
	NumArenas = arena.Count

	pageSize = page.Size
)

// Allocator is a multi-arena, size-classed slab allocator over OS page
// mappings.
//
// All methods are safe for concurrent use except Close. The zero value is not
// usable; construct with New.
type Allocator struct {
	dir     *arena.Directory
	mapper  *accountingMapper
	rc      *resource.Controller
	tracker *tracker.Tracker // nil unless WithDebug

	spinRounds int
	metrics    MetricsCollector
	timed      bool
	logger     *Logger
	arenaLog   [NumArenas]*Logger

	tokens sync.Pool
	homes  atomic.Uint64
	stats  atomicStats
	closed atomic.Bool
}

// New creates an Allocator. No memory is mapped until the first allocation.
func New(optFns ...Option) *Allocator {
	o := applyOptions(optFns)
	if o.mapper == nil {
		o.mapper = mmap.Anonymous{}
	}

	rc := resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})
	a := &Allocator{
		rc:         rc,
		mapper:     &accountingMapper{mapper: o.mapper, rc: rc},
		spinRounds: o.spinRounds,
		metrics:    o.metricsCollector,
		logger:     o.logger,
	}
	_, noop := o.metricsCollector.(NoopMetricsCollector)
	a.timed = !noop
	for i := range a.arenaLog {
		a.arenaLog[i] = o.logger.WithArena(i)
	}
	if o.debug {
		a.tracker = tracker.New()
	}
	a.tokens.New = func() any {
		return &token{home: a.nextHome()}
	}
	a.dir = arena.NewDirectory(a.mapper, arena.WithPageObserver(a.pageMapped))
	return a
}

func (a *Allocator) pageMapped(id int, c sizeclass.Class) {
	a.metrics.RecordPageMapped(id, c.Size())
	a.arenaLog[id].LogPageMapped(context.Background(), c.Size())
}

func (a *Allocator) ensure() error {
	if a.closed.Load() {
		return ErrClosed
	}
	return translateError(a.dir.Ensure())
}

// Allocate returns at least size bytes of uninitialized memory.
//
// Requests up to MaxClassSize are rounded up to a size class and served from
// a slot in an arena page; zero-byte requests get the smallest slot. Larger
// requests get a dedicated mapping. The memory stays valid until it is passed
// to Deallocate or Reallocate.
func (a *Allocator) Allocate(size int) (unsafe.Pointer, error) {
	t := a.getToken()
	p, err := a.allocate(t.home, size)
	a.putToken(t)
	return p, err
}

func (a *Allocator) allocate(home, size int) (unsafe.Pointer, error) {
	var start time.Time
	if a.timed {
		start = time.Now()
	}

	p, err := a.doAllocate(home, size)

	if a.timed {
		a.metrics.RecordAllocate(size, time.Since(start), err)
	}
	return p, err
}

func (a *Allocator) doAllocate(home, size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if err := a.ensure(); err != nil {
		return nil, err
	}

	var (
		p   unsafe.Pointer
		err error
	)
	if c, ok := sizeclass.Classify(size); ok {
		p, err = a.slotAllocate(home, c)
	} else {
		p, err = a.largeAllocate(size)
	}
	if err != nil {
		a.logger.LogAllocateFailure(context.Background(), size, err)
		return nil, err
	}

	if a.tracker != nil {
		a.tracker.Allocated(uintptr(p))
	}
	return p, nil
}

func (a *Allocator) slotAllocate(home int, c sizeclass.Class) (unsafe.Pointer, error) {
	ar := a.acquire(home)
	_, p, err := ar.FindOrCreatePage(c)
	ar.Unlock()
	if err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

// Deallocate releases a block returned by Allocate or Reallocate.
//
// A nil pointer is a no-op. Passing any other address that is not a live
// block is undefined unless the allocator was built WithDebug, in which case
// ErrInvalidFree or ErrDoubleFree is returned and nothing is modified.
//
// If unmapping a large block fails, the error matches ErrMappingFailed and
// the block stays valid, so the call can be retried.
func (a *Allocator) Deallocate(p unsafe.Pointer) error {
	var start time.Time
	if a.timed {
		start = time.Now()
	}

	err := a.deallocate(p)

	if a.timed {
		a.metrics.RecordDeallocate(time.Since(start), err)
	}
	return err
}

func (a *Allocator) deallocate(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	if a.closed.Load() {
		return ErrClosed
	}
	if err := a.validate(p); err != nil {
		return err
	}
	if err := a.release(p); err != nil {
		// The block is still mapped and owned by the caller.
		if a.tracker != nil {
			a.tracker.Allocated(uintptr(p))
		}
		return err
	}
	return nil
}

// release frees p without validation. Only unmapping a large block can fail,
// in which case nothing has changed.
func (a *Allocator) release(p unsafe.Pointer) error {
	pg := page.FromAddr(p)
	if pg.IsLarge() {
		return a.largeFree(pg)
	}

	ar := a.dir.Arena(pg.Arena())
	ar.Lock()
	ar.Release(pg, p)
	ar.Unlock()
	return nil
}

// validate checks p against the debug tracker and marks it released. It is a
// no-op without WithDebug.
func (a *Allocator) validate(p unsafe.Pointer) error {
	if a.tracker == nil {
		return nil
	}
	return a.classify(p, a.tracker.Release(uintptr(p)))
}

func (a *Allocator) classify(p unsafe.Pointer, s tracker.Status) error {
	var err error
	switch s {
	case tracker.Live:
		return nil
	case tracker.Stale:
		err = fmt.Errorf("%w: %#x", ErrDoubleFree, uintptr(p))
	default:
		err = fmt.Errorf("%w: %#x", ErrInvalidFree, uintptr(p))
	}
	a.logger.LogInvalidFree(context.Background(), uintptr(p), err)
	return err
}

// Reallocate moves a block to a new allocation of size bytes.
//
// It always allocates a fresh block, copies min(UsableSize(p), capacity of
// the new block) bytes, and frees p. A nil p behaves as Allocate. On any
// error, including a failure to unmap a large p, the new block is released
// and p is left untouched and still valid.
func (a *Allocator) Reallocate(p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	t := a.getToken()
	np, err := a.reallocate(t.home, p, size)
	a.putToken(t)
	return np, err
}

func (a *Allocator) reallocate(home int, p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	var start time.Time
	if a.timed {
		start = time.Now()
	}

	np, err := a.doReallocate(home, p, size)

	if a.timed {
		a.metrics.RecordReallocate(size, time.Since(start), err)
	}
	return np, err
}

func (a *Allocator) doReallocate(home int, p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if p == nil {
		return a.doAllocate(home, size)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if a.closed.Load() {
		return nil, ErrClosed
	}
	if a.tracker != nil {
		if err := a.classify(p, a.tracker.Check(uintptr(p))); err != nil {
			return nil, err
		}
	}

	np, err := a.doAllocate(home, size)
	if err != nil {
		return nil, err
	}
	n := min(a.UsableSize(p), a.UsableSize(np))

	pg := page.FromAddr(p)
	if pg.IsLarge() {
		copy(Bytes(np, n), Bytes(p, n))
		if err := a.largeFree(pg); err != nil {
			// Roll back: p stays valid and unchanged, np is released.
			if a.tracker != nil {
				a.tracker.Release(uintptr(np))
			}
			_ = a.release(np)
			return nil, err
		}
		if a.tracker != nil {
			a.tracker.Release(uintptr(p))
		}
		return np, nil
	}

	// Hold the owning arena across the copy so the old slot cannot be
	// released and handed out again while it is being read.
	ar := a.dir.Arena(pg.Arena())
	ar.Lock()
	copy(Bytes(np, n), Bytes(p, n))
	if a.tracker != nil {
		a.tracker.Release(uintptr(p))
	}
	ar.Release(pg, p)
	ar.Unlock()
	return np, nil
}

// UsableSize returns the capacity of the block at p: the slot size for
// bucketed blocks, or the mapped size minus HeaderSize for large blocks.
// It returns 0 for nil.
func (a *Allocator) UsableSize(p unsafe.Pointer) int {
	if p == nil {
		return 0
	}
	pg := page.FromAddr(p)
	if pg.IsLarge() {
		return pg.RecordedSize() - page.HeaderSize
	}
	return pg.SlotSize()
}

// Close unmaps every arena page, invalidating every slot handed out from
// them. Large blocks are not tracked and stay mapped; free them before
// closing.
//
// Close must not be called concurrently with other methods. Later calls
// return ErrClosed from every operation except Close and Stats.
func (a *Allocator) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	stats := a.Stats()
	err := a.dir.Close()
	if a.tracker != nil {
		a.tracker.Reset()
	}
	a.logger.LogClose(context.Background(), stats, err)
	return err
}

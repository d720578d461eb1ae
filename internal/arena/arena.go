package arena

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/hupe1980/xmalloc/internal/page"
	"github.com/hupe1980/xmalloc/internal/sizeclass"
)

// Mapper obtains and releases page-aligned memory.
type Mapper interface {
	Map(size int) (unsafe.Pointer, error)
	Unmap(p unsafe.Pointer, size int) error
}

// ErrMisaligned is returned when a Mapper yields memory that does not start
// on a page boundary.
var ErrMisaligned = errors.New("arena: mapping is not page aligned")

// ClassStats is a per-class snapshot of one arena.
type ClassStats struct {
	Pages int // pages linked into the ring
	InUse int // occupied slots
}

// Arena is an independent allocation domain.
type Arena struct {
	_ cpu.CacheLinePad

	mu     sync.Mutex
	id     int
	heads  [sizeclass.Count]*page.Page
	pages  [sizeclass.Count]int
	inUse  [sizeclass.Count]int
	mapper Mapper
	onMap  func(arena int, c sizeclass.Class)

	_ cpu.CacheLinePad
}

// ID returns the arena index within its directory.
func (a *Arena) ID() int {
	return a.id
}

// TryLock attempts to lock the arena without blocking.
func (a *Arena) TryLock() bool {
	return a.mu.TryLock()
}

// Lock locks the arena.
func (a *Arena) Lock() {
	a.mu.Lock()
}

// Unlock unlocks the arena.
func (a *Arena) Unlock() {
	a.mu.Unlock()
}

// init creates the first page of every ring.
func (a *Arena) init() error {
	for c := sizeclass.Class(0); c < sizeclass.Count; c++ {
		pg, err := a.mapPage(c)
		if err != nil {
			return err
		}
		a.heads[c] = pg
		a.pages[c] = 1
	}
	return nil
}

func (a *Arena) mapPage(c sizeclass.Class) (*page.Page, error) {
	base, err := a.mapper.Map(page.Size)
	if err != nil {
		return nil, fmt.Errorf("arena %d: map page for %d-byte class: %w", a.id, c.Size(), err)
	}
	if !page.Aligned(base) {
		_ = a.mapper.Unmap(base, page.Size)
		return nil, ErrMisaligned
	}
	pg := page.Init(base, c, a.id)
	if a.onMap != nil {
		a.onMap(a.id, c)
	}
	return pg, nil
}

// FindOrCreatePage claims a free slot of class c. It walks the ring from its
// head; when every page is full it maps a new page, links it in front of the
// old head and claims the slot there. The arena must be locked.
func (a *Arena) FindOrCreatePage(c sizeclass.Class) (*page.Page, unsafe.Pointer, error) {
	head := a.heads[c]
	pg := head
	for {
		if p, ok := pg.ScanForFreeSlot(); ok {
			a.inUse[c]++
			return pg, p, nil
		}
		if pg = pg.Next(); pg == head {
			break
		}
	}

	pg, err := a.mapPage(c)
	if err != nil {
		return nil, nil, err
	}

	tail := head
	for tail.Next() != head {
		tail = tail.Next()
	}
	tail.SetNext(pg)
	pg.SetNext(head)
	a.heads[c] = pg
	a.pages[c]++

	p, ok := pg.ScanForFreeSlot()
	if !ok {
		return nil, nil, fmt.Errorf("arena %d: fresh page has no free slot", a.id)
	}
	a.inUse[c]++
	return pg, p, nil
}

// Release clears the slot p of pg and reports whether it was occupied.
// The arena must be locked.
func (a *Arena) Release(pg *page.Page, p unsafe.Pointer) bool {
	if !pg.Release(p) {
		return false
	}
	a.inUse[pg.Class()]--
	return true
}

// Head returns the current ring head of class c. The arena must be locked.
func (a *Arena) Head(c sizeclass.Class) *page.Page {
	return a.heads[c]
}

// Stats returns per-class counters. It locks the arena.
func (a *Arena) Stats() [sizeclass.Count]ClassStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out [sizeclass.Count]ClassStats
	for c := range out {
		out[c] = ClassStats{Pages: a.pages[c], InUse: a.inUse[c]}
	}
	return out
}

// close unmaps every page of every ring. The arena must be locked.
func (a *Arena) close() error {
	var errs []error
	for c := range a.heads {
		head := a.heads[c]
		if head == nil {
			continue
		}
		// Collect first: the next link lives inside the memory being unmapped.
		ring := make([]*page.Page, 0, a.pages[c])
		pg := head
		for {
			ring = append(ring, pg)
			if pg = pg.Next(); pg == head {
				break
			}
		}
		for _, pg := range ring {
			if err := a.mapper.Unmap(pg.Base(), page.Size); err != nil {
				errs = append(errs, err)
			}
		}
		a.heads[c] = nil
		a.pages[c] = 0
		a.inUse[c] = 0
	}
	return errors.Join(errs...)
}

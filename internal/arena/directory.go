package arena

import (
	"errors"
	"sync"

	"github.com/hupe1980/xmalloc/internal/sizeclass"
)

// Count is the number of arenas in a directory.
const Count = 8

// ErrClosed is returned by Ensure after Close.
var ErrClosed = errors.New("arena: directory is closed")

// Option configures a Directory.
type Option func(*Directory)

// WithPageObserver registers fn to be called, under the arena lock, after
// each page is mapped.
func WithPageObserver(fn func(arena int, c sizeclass.Class)) Option {
	return func(d *Directory) {
		d.onMap = fn
	}
}

// Directory is the fixed set of arenas.
type Directory struct {
	arenas [Count]Arena
	onMap  func(arena int, c sizeclass.Class)

	once    sync.Once
	initErr error
	closed  bool
}

// NewDirectory creates an uninitialized directory backed by mapper.
func NewDirectory(mapper Mapper, opts ...Option) *Directory {
	d := &Directory{}
	for _, opt := range opts {
		opt(d)
	}
	for i := range d.arenas {
		a := &d.arenas[i]
		a.id = i
		a.mapper = mapper
		a.onMap = d.onMap
	}
	return d
}

// Ensure initializes the directory exactly once. Concurrent callers block
// until the first one finishes and all observe its result. A failed
// initialization releases whatever was mapped and is not retried.
func (d *Directory) Ensure() error {
	d.once.Do(func() {
		d.initErr = d.init()
	})
	return d.initErr
}

func (d *Directory) init() error {
	for i := range d.arenas {
		a := &d.arenas[i]
		if err := a.init(); err != nil {
			_ = d.release()
			return err
		}
	}
	return nil
}

// Arena returns arena i.
func (d *Directory) Arena(i int) *Arena {
	return &d.arenas[i]
}

// Len returns the number of arenas.
func (d *Directory) Len() int {
	return Count
}

// Stats sums per-class counters over all arenas.
func (d *Directory) Stats() [sizeclass.Count]ClassStats {
	var out [sizeclass.Count]ClassStats
	for i := range d.arenas {
		s := d.arenas[i].Stats()
		for c := range out {
			out[c].Pages += s[c].Pages
			out[c].InUse += s[c].InUse
		}
	}
	return out
}

// Close unmaps every ring page of every arena. It must not run concurrently
// with allocations. Later calls to Ensure return ErrClosed.
func (d *Directory) Close() error {
	d.once.Do(func() {}) // a never-initialized directory stays unmapped
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.release()
	d.initErr = ErrClosed
	return err
}

func (d *Directory) release() error {
	var errs []error
	for i := range d.arenas {
		a := &d.arenas[i]
		a.Lock()
		if err := a.close(); err != nil {
			errs = append(errs, err)
		}
		a.Unlock()
	}
	return errors.Join(errs...)
}

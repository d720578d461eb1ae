package page

import (
	"math/bits"
	"unsafe"

	"github.com/hupe1980/xmalloc/internal/sizeclass"
)

const (
	// Size is the byte size and alignment of every page.
	Size = 4096
	// NoArena is the arena id stamped on large blocks.
	NoArena = -1

	sizeMask = Size - 1

	slotAlign = 8
)

// Page is the header at the base of a mapped page. A *Page is the page base
// address.
type Page struct {
	size  uint64 // slot size, or total mapped bytes for a large block
	arena int32
	class int32
	next  *Page // ring successor; nil for large blocks
}

// HeaderSize is the number of bytes reserved for the header.
const HeaderSize = int(unsafe.Sizeof(Page{}))

// Layout describes how a page is carved up for one slot size.
type Layout struct {
	SlotSize    int
	BitmapBytes int
	SlotOffset  int
	SlotCount   int
}

var layouts = func() (l [sizeclass.Count]Layout) {
	for c := range l {
		l[c] = LayoutFor(sizeclass.Class(c).Size())
	}
	return l
}()

// LayoutFor computes the layout of a page holding slotSize-byte slots.
func LayoutFor(slotSize int) Layout {
	avail := Size - HeaderSize
	bitmapBytes := ceilDiv(avail, slotSize*8)
	slotCount := (avail - bitmapBytes) / slotSize

	// Slots start on an 8-byte boundary. For every class the alignment pad
	// fits in the slack left by the floor division above.
	offset := alignUp(HeaderSize+bitmapBytes, slotAlign)
	if fit := (Size - offset) / slotSize; fit < slotCount {
		slotCount = fit
	}

	return Layout{
		SlotSize:    slotSize,
		BitmapBytes: bitmapBytes,
		SlotOffset:  offset,
		SlotCount:   slotCount,
	}
}

// ClassLayout returns the precomputed layout of a size class.
func ClassLayout(c sizeclass.Class) Layout {
	return layouts[c]
}

// Init stamps a fresh page for the given class and arena. The page forms a
// ring of one until it is linked elsewhere.
func Init(base unsafe.Pointer, c sizeclass.Class, arena int) *Page {
	pg := (*Page)(base)
	pg.size = uint64(c.Size())
	pg.arena = int32(arena) //nolint:gosec // arena ids are small
	pg.class = int32(c)     //nolint:gosec // class ids are small
	pg.next = pg
	clear(pg.bitmap())
	return pg
}

// InitLarge stamps the header of a large block mapping of size bytes.
func InitLarge(base unsafe.Pointer, size int) *Page {
	pg := (*Page)(base)
	pg.size = uint64(size) //nolint:gosec // size is a positive mapping length
	pg.arena = NoArena
	pg.class = int32(sizeclass.Large)
	pg.next = nil
	return pg
}

// FromAddr returns the page containing p by masking it down to a page
// boundary.
func FromAddr(p unsafe.Pointer) *Page {
	return (*Page)(unsafe.Add(p, -int(uintptr(p)&sizeMask)))
}

// Aligned reports whether p sits on a page boundary.
func Aligned(p unsafe.Pointer) bool {
	return uintptr(p)&sizeMask == 0
}

// Base returns the page base address.
func (pg *Page) Base() unsafe.Pointer {
	return unsafe.Pointer(pg)
}

// RecordedSize returns the size field of the header.
func (pg *Page) RecordedSize() int {
	return int(pg.size) //nolint:gosec // bounded by the mapping size
}

// IsLarge reports whether the header describes a large block.
func (pg *Page) IsLarge() bool {
	return pg.size > sizeclass.MaxSize
}

// SlotSize returns the slot size of a bucketed page.
func (pg *Page) SlotSize() int {
	return int(pg.size) //nolint:gosec // at most sizeclass.MaxSize
}

// Arena returns the owning arena id, or NoArena.
func (pg *Page) Arena() int {
	return int(pg.arena)
}

// Class returns the size class of the page.
func (pg *Page) Class() sizeclass.Class {
	return sizeclass.Class(pg.class)
}

// Next returns the ring successor.
func (pg *Page) Next() *Page {
	return pg.next
}

// SetNext links pg to next.
func (pg *Page) SetNext(next *Page) {
	pg.next = next
}

// Layout returns the layout for the page's class.
func (pg *Page) Layout() Layout {
	return layouts[pg.class]
}

// Data returns the first usable byte of a large block.
func (pg *Page) Data() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(pg), HeaderSize)
}

// Contains reports whether p lies within the page's byte range.
func (pg *Page) Contains(p unsafe.Pointer) bool {
	return uintptr(p)-uintptr(unsafe.Pointer(pg)) < Size
}

func (pg *Page) bitmap() []byte {
	l := layouts[pg.class]
	return unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(pg), HeaderSize)), l.BitmapBytes)
}

// ScanForFreeSlot claims the lowest free slot and returns its address.
// Fully occupied bitmap bytes are skipped eight slots at a time. It reports
// false when all SlotCount slots are in use.
func (pg *Page) ScanForFreeSlot() (unsafe.Pointer, bool) {
	l := layouts[pg.class]
	bm := pg.bitmap()

	for i, b := range bm {
		if i*8 >= l.SlotCount {
			break
		}
		if b == 0xFF {
			continue
		}
		idx := i*8 + bits.TrailingZeros8(^b)
		if idx >= l.SlotCount {
			break
		}
		setBit(bm, idx)
		return pg.SlotAddr(idx), true
	}
	return nil, false
}

// SlotAddr returns the address of slot i.
func (pg *Page) SlotAddr(i int) unsafe.Pointer {
	l := layouts[pg.class]
	return unsafe.Add(unsafe.Pointer(pg), l.SlotOffset+i*l.SlotSize)
}

// SlotIndex returns the slot index of p, computed as
// (p - base - SlotOffset) / SlotSize.
func (pg *Page) SlotIndex(p unsafe.Pointer) int {
	l := layouts[pg.class]
	off := int(uintptr(p) - uintptr(unsafe.Pointer(pg))) //nolint:gosec // p is inside the page
	return (off - l.SlotOffset) / l.SlotSize
}

// InUse reports whether the slot holding p is marked occupied.
func (pg *Page) InUse(p unsafe.Pointer) bool {
	return testBit(pg.bitmap(), pg.SlotIndex(p))
}

// Release clears the occupancy bit of the slot holding p and reports whether
// it was set.
func (pg *Page) Release(p unsafe.Pointer) bool {
	bm := pg.bitmap()
	idx := pg.SlotIndex(p)
	was := testBit(bm, idx)
	clearBit(bm, idx)
	return was
}

// Count returns the number of occupied slots.
func (pg *Page) Count() int {
	n := 0
	for _, b := range pg.bitmap() {
		n += bits.OnesCount8(b)
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

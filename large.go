package xmalloc

import (
	"context"
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/xmalloc/internal/page"
)

// maxLargeSize keeps the page rounding in largeAllocate from overflowing.
const maxLargeSize = math.MaxInt - 2*page.Size

// largePages returns the number of whole pages backing a size-byte large
// block, header included.
func largePages(size int) int {
	return (size + page.HeaderSize + page.Size - 1) / page.Size
}

// largeAllocate maps a dedicated block for size bytes and returns the address
// just past its header.
func (a *Allocator) largeAllocate(size int) (unsafe.Pointer, error) {
	if size > maxLargeSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	total := largePages(size) * page.Size

	base, err := a.mapper.Map(total)
	if err != nil {
		a.logger.LogLargeBlock(context.Background(), "map", total, err)
		return nil, err
	}
	if !page.Aligned(base) {
		_ = a.mapper.Unmap(base, total)
		return nil, &MappingError{Op: "map", Size: total, cause: fmt.Errorf("base %#x is not page aligned", uintptr(base))}
	}

	pg := page.InitLarge(base, total)
	a.stats.LargeBlocks.Add(1)
	a.stats.LargeBytes.Add(int64(total))
	a.logger.LogLargeBlock(context.Background(), "map", total, nil)
	return pg.Data(), nil
}

// largeFree unmaps exactly the range recorded in the block header.
func (a *Allocator) largeFree(pg *page.Page) error {
	total := pg.RecordedSize()
	if err := a.mapper.Unmap(pg.Base(), total); err != nil {
		a.logger.LogLargeBlock(context.Background(), "unmap", total, err)
		return err
	}
	a.stats.LargeBlocks.Add(-1)
	a.stats.LargeBytes.Add(-int64(total))
	a.logger.LogLargeBlock(context.Background(), "unmap", total, nil)
	return nil
}

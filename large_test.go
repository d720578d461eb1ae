package xmalloc

import (
	"math"
	"testing"

	"github.com/hupe1980/xmalloc/internal/mmap"
	"github.com/hupe1980/xmalloc/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLargePages(t *testing.T) {
	tests := []struct {
		size, pages int
	}{
		{1025, 1},
		{PageSize - HeaderSize, 1},
		{PageSize - HeaderSize + 1, 2},
		{5000, 2},
		{1 << 20, 257},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.pages, largePages(tt.size), "size %d", tt.size)
	}
}

func TestAllocator_LargeExactMapping(t *testing.T) {
	m := mmap.NewFaulty(nil)
	a := newTestAllocator(t, WithMapper(m))
	warmUp(t, a)
	baseline := a.Stats().BytesMapped

	p, err := a.Allocate(5000)
	require.NoError(t, err)

	mapped := m.LastMap()
	assert.Equal(t, 2*PageSize, mapped.Size)
	assert.Equal(t, mapped.Base+HeaderSize, uintptr(p))
	assert.True(t, page.FromAddr(p).IsLarge())
	assert.Equal(t, 2*PageSize-HeaderSize, a.UsableSize(p))

	fill(p, 5000, 0xEE)
	assert.True(t, allEqual(p, 5000, 0xEE))

	require.NoError(t, a.Deallocate(p))
	assert.Equal(t, mapped, m.LastUnmap(), "the exact mapped range is returned")
	assert.Equal(t, baseline, a.Stats().BytesMapped)
}

func TestAllocator_LargeCycles(t *testing.T) {
	m := mmap.NewFaulty(nil)
	a := newTestAllocator(t, WithMapper(m))
	warmUp(t, a)
	baseline := a.Stats().BytesMapped

	for round := 0; round < 3; round++ {
		for _, size := range []int{1025, 4072, 4073, 65536, 1<<20 + 3} {
			p, err := a.Allocate(size)
			require.NoError(t, err)

			mapped := m.LastMap()
			assert.Equal(t, largePages(size)*PageSize, mapped.Size)
			assert.GreaterOrEqual(t, page.FromAddr(p).RecordedSize(), size+HeaderSize)
			assert.GreaterOrEqual(t, a.UsableSize(p), size)

			require.NoError(t, a.Deallocate(p))
			assert.Equal(t, mapped, m.LastUnmap())
		}
	}

	s := a.Stats()
	assert.Equal(t, baseline, s.BytesMapped)
	assert.Zero(t, s.LargeBlocks)
	assert.Zero(t, s.LargeBytes)
}

func TestAllocator_LargeBeforeInit(t *testing.T) {
	m := mmap.NewFaulty(nil)
	a := newTestAllocator(t, WithMapper(m))

	p, err := a.Allocate(2048)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(p))

	maps, unmaps := m.Maps(), m.Unmaps()
	assert.Equal(t, NumArenas*9+1, maps, "the directory is set up on the first allocation of any size")
	assert.Equal(t, 1, unmaps)
}

func TestAllocator_LargeTooBig(t *testing.T) {
	a := newTestAllocator(t)

	_, err := a.Allocate(math.MaxInt)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

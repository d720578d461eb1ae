package mmap

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_ReadWriteUnmap(t *testing.T) {
	size := 3 * 4096
	p, err := Map(size)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Zero(t, uintptr(p)%uintptr(os.Getpagesize()), "mapping must be page aligned")

	data := unsafe.Slice((*byte)(p), size)
	for i := range data {
		require.Zero(t, data[i], "fresh mapping must be zero-filled")
	}

	data[0] = 0xAB
	data[size-1] = 0xCD
	assert.Equal(t, byte(0xAB), *(*byte)(p))
	assert.Equal(t, byte(0xCD), data[size-1])

	require.NoError(t, Unmap(p, size))
}

func TestMap_InvalidArguments(t *testing.T) {
	_, err := Map(0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = Map(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)

	assert.ErrorIs(t, Unmap(nil, 4096), ErrNilPointer)

	p, err := Map(4096)
	require.NoError(t, err)
	assert.ErrorIs(t, Unmap(p, 0), ErrInvalidSize)
	require.NoError(t, Unmap(p, 4096))
}

func TestAnonymous(t *testing.T) {
	var m Anonymous

	p, err := m.Map(8192)
	require.NoError(t, err)

	*(*uint64)(p) = 42
	assert.Equal(t, uint64(42), *(*uint64)(p))

	require.NoError(t, m.Unmap(p, 8192))
}

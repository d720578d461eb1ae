package xmalloc

import (
	"sync"
	"unsafe"
)

var defaultAllocator = sync.OnceValue(func() *Allocator {
	return New()
})

// Default returns the process-wide allocator used by Malloc, Free and
// Realloc. It is created on first use.
func Default() *Allocator {
	return defaultAllocator()
}

// Malloc allocates from the default allocator.
func Malloc(size int) (unsafe.Pointer, error) {
	return Default().Allocate(size)
}

// Free releases a block obtained from Malloc or Realloc.
func Free(p unsafe.Pointer) error {
	return Default().Deallocate(p)
}

// Realloc reallocates a block obtained from Malloc or Realloc.
func Realloc(p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	return Default().Reallocate(p, size)
}

// Bytes views n bytes at p as a byte slice. The slice aliases allocator
// memory and must not be used after the block is freed.
func Bytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

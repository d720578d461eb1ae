package mmap

import (
	"unsafe"
)

// Map creates a read-write anonymous mapping of size bytes.
// The memory is zero-filled by the operating system.
func Map(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return osMapAnon(size)
}

// Unmap releases a mapping created by Map.
func Unmap(p unsafe.Pointer, size int) error {
	if p == nil {
		return ErrNilPointer
	}
	if size <= 0 {
		return ErrInvalidSize
	}
	return osUnmap(p, size)
}

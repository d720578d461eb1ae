package mmap

import (
	"errors"
	"unsafe"
)

var (
	// ErrInvalidSize is returned when a mapping size is not positive.
	ErrInvalidSize = errors.New("mmap: invalid mapping size")
	// ErrNilPointer is returned when unmapping a nil base address.
	ErrNilPointer = errors.New("mmap: nil base address")
)

// Anonymous maps private anonymous memory from the operating system.
// The zero value is ready to use.
type Anonymous struct{}

// Map implements the allocator's Mapper contract.
func (Anonymous) Map(size int) (unsafe.Pointer, error) {
	return Map(size)
}

// Unmap implements the allocator's Mapper contract.
func (Anonymous) Unmap(p unsafe.Pointer, size int) error {
	return Unmap(p, size)
}

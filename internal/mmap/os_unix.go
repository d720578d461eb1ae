//go:build unix

package mmap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func osMapAnon(size int) (unsafe.Pointer, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_ANON | unix.MAP_PRIVATE

	data, err := unix.Mmap(-1, 0, size, prot, flags)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&data[0]), nil //nolint:gosec // unsafe is required for off-heap mappings
}

func osUnmap(p unsafe.Pointer, size int) error {
	// unix.Munmap looks the mapping up by its first and last byte, so a slice
	// rebuilt over the exact original range is accepted.
	return unix.Munmap(unsafe.Slice((*byte)(p), size))
}

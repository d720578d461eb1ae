//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osMapAnon(size int) (unsafe.Pointer, error) {
	// VirtualAlloc with MEM_COMMIT is demand-paged like mmap on Unix, and its
	// results are aligned to the allocation granularity (64 KiB).
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(addr), nil //nolint:gosec,govet // address returned by VirtualAlloc
}

func osUnmap(p unsafe.Pointer, size int) error {
	_ = size // MEM_RELEASE frees the whole reservation
	return windows.VirtualFree(uintptr(p), 0, windows.MEM_RELEASE)
}

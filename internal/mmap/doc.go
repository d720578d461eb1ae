// Package mmap provides anonymous memory mappings for off-heap allocation.
//
// # Overview
//
// Slab pages and large blocks are obtained directly from the operating system
// so that they live outside the Go heap and keep a stable, page-aligned base
// address for their whole lifetime.
//
// # Usage
//
//	p, err := mmap.Map(4096)
//	if err != nil { ... }
//	defer mmap.Unmap(p, 4096)
//
//	data := unsafe.Slice((*byte)(p), 4096)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//
// Mappings are always aligned to at least the OS page size. Unmap must be
// called with exactly the base and size returned by, and passed to, Map.
//
// # Fault Injection
//
// Faulty wraps any mapper, records every call and fails Map or Unmap on
// demand:
//
//	m := mmap.NewFaulty(nil)
//	m.SetFault(mmap.Fault{FailAfterMaps: 3, FailAfterBytes: -1})
package mmap

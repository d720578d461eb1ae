// Package xmalloc provides a multi-arena, size-classed slab allocator backed
// directly by OS page mappings.
//
// Memory handed out by xmalloc lives outside the Go heap. It is never scanned
// or moved by the garbage collector and is reclaimed only when the caller
// frees it.
//
// # Quick Start
//
//	a := xmalloc.New()
//	defer a.Close()
//
//	p, err := a.Allocate(90) // served from a 128-byte slot
//	if err != nil { ... }
//	*(*int64)(p) = 42
//
//	p, err = a.Reallocate(p, 600) // contents move to a 1024-byte slot
//	if err != nil { ... }
//	_ = a.Deallocate(p)
//
// The package-level Malloc, Free and Realloc use a process-wide allocator
// created on first use.
//
// # Layout
//
// Requests up to MaxClassSize bytes are rounded up to one of nine size
// classes (4 to 1024 bytes) and served from PageSize pages. Each page starts
// with a header naming its arena and class, followed by an occupancy bitmap
// and the slots. Because pages are PageSize aligned, Deallocate recovers the
// page of any block by masking its address. Larger requests get a dedicated
// mapping of whole pages with the same header in front.
//
// # Concurrency
//
// The allocator is split into NumArenas arenas, each with its own mutex and
// one ring of pages per size class. Allocate starts at a home arena and tries
// non-blocking locks across all arenas before blocking on its home arena, so a
// busy arena rarely stalls an allocation. Deallocate and Reallocate lock the
// arena that owns the block.
//
// Home arenas come from a per-P pool, which keeps goroutines scheduled on the
// same P on the same arena. Use NewHandle for a fixed home.
//
// # Safety
//
// Pages are never returned to the OS before Close. Freeing an address that
// is not a live block is undefined; WithDebug turns such calls into
// ErrInvalidFree and ErrDoubleFree.
package xmalloc

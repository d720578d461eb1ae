// Package tracker records live block addresses for debug-mode validation.
//
// The tracker keeps two roaring64 bitmaps: blocks currently handed out and
// blocks released since they were last handed out. Release classifies an
// address before the allocator touches the memory behind it, so invalid and
// repeated frees are reported instead of corrupting page bitmaps or
// dereferencing unmapped memory.
package tracker

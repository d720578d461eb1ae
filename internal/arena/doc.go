// Package arena provides the per-arena page rings behind the slab allocator.
//
// An Arena owns one ring of pages per size class and a mutex that serializes
// every ring and bitmap mutation. The Directory is the fixed set of Count
// arenas, initialized once on first use with one page per class per arena.
//
// # Features
//
//   - Pages come from a Mapper (anonymous OS mappings in production)
//   - Rings grow on demand; pages are never returned before Close
//   - Arenas are padded to a cache line so neighbouring mutexes do not share one
//
// # Locking
//
// FindOrCreatePage and Release must be called with the arena locked. Arena
// selection and the lock contention policy belong to the caller.
package arena

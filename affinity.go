package xmalloc

import (
	"context"
	"runtime"
	"unsafe"

	"github.com/hupe1980/xmalloc/internal/arena"
)

// token carries a caller's starting arena.
type token struct {
	home int
}

// nextHome hands out starting arenas round-robin in creation order.
func (a *Allocator) nextHome() int {
	return int(a.homes.Add(1)-1) % arena.Count //nolint:gosec // modulo a small constant
}

// getToken returns a token from the per-P pool. Goroutines running on the
// same P tend to get the same token back, and with it the same home arena.
func (a *Allocator) getToken() *token {
	return a.tokens.Get().(*token)
}

func (a *Allocator) putToken(t *token) {
	a.tokens.Put(t)
}

// acquire locks an arena for an allocation starting at home.
//
// It tries non-blocking locks on home, home+1, ... (mod NumArenas) for
// spinRounds full passes, yielding the processor between passes. The first
// arena that locks serves this call only; the caller's home is unchanged. If
// every attempt fails, it blocks on the home arena, which bounds the spin
// when all arenas stay busy. With zero spin rounds it blocks on home
// directly and nothing is counted as contention.
func (a *Allocator) acquire(home int) *arena.Arena {
	n := a.dir.Len()
	attempts := a.spinRounds * n

	for i := 0; i < attempts; i++ {
		if i > 0 && i%n == 0 {
			runtime.Gosched()
		}
		ar := a.dir.Arena((home + i) % n)
		if ar.TryLock() {
			if i > 0 {
				a.stats.TryLockMisses.Add(int64(i))
				a.metrics.RecordContention(i, false)
			}
			return ar
		}
	}

	if attempts > 0 {
		a.stats.TryLockMisses.Add(int64(attempts))
		a.stats.BlockingFallbacks.Add(1)
		a.metrics.RecordContention(attempts, true)
		a.arenaLog[home].LogContentionFallback(context.Background(), attempts)
	}

	ar := a.dir.Arena(home)
	ar.Lock()
	return ar
}

// Handle pins allocations to a fixed home arena.
//
// Allocator.Allocate picks a home per call from a per-P pool; a Handle keeps
// the same home for its whole lifetime, which suits goroutines locked to an
// OS thread or workers that want predictable locality. A Handle is safe for
// concurrent use, but sharing one between goroutines defeats its purpose.
type Handle struct {
	a    *Allocator
	home int
}

// NewHandle returns a Handle whose home arena is assigned round-robin.
func (a *Allocator) NewHandle() *Handle {
	return &Handle{a: a, home: a.nextHome()}
}

// Home returns the handle's home arena index.
func (h *Handle) Home() int {
	return h.home
}

// Allocate is Allocator.Allocate starting from the handle's home arena.
func (h *Handle) Allocate(size int) (unsafe.Pointer, error) {
	return h.a.allocate(h.home, size)
}

// Reallocate is Allocator.Reallocate starting from the handle's home arena.
func (h *Handle) Reallocate(p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	return h.a.reallocate(h.home, p, size)
}

// Deallocate is Allocator.Deallocate. Frees always go to the arena that owns
// the block.
func (h *Handle) Deallocate(p unsafe.Pointer) error {
	return h.a.Deallocate(p)
}

package xmalloc

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

var errNoMemory = errors.New("cannot allocate memory")

func newTestAllocator(t *testing.T, opts ...Option) *Allocator {
	t.Helper()
	a := New(opts...)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// warmUp forces the lazy directory initialization.
func warmUp(t *testing.T, a *Allocator) {
	t.Helper()
	p, err := a.Allocate(1)
	require.NoError(t, err)
	require.NoError(t, a.Deallocate(p))
}

func fill(p unsafe.Pointer, n int, v byte) {
	b := Bytes(p, n)
	for i := range b {
		b[i] = v
	}
}

func allEqual(p unsafe.Pointer, n int, v byte) bool {
	for _, c := range Bytes(p, n) {
		if c != v {
			return false
		}
	}
	return true
}

func ptrOf[T any](v *T) unsafe.Pointer {
	return unsafe.Pointer(v)
}

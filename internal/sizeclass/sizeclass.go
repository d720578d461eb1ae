package sizeclass

import "math/bits"

const (
	// Count is the number of bucketed size classes.
	Count = 9
	// MinSize is the smallest slot size. Smaller requests round up to it.
	MinSize = 4
	// MaxSize is the largest slot size. Larger requests are Large.
	MaxSize = 1024

	minShift = 2 // log2(MinSize)
)

// Class indexes the size-class table.
type Class int

// Large marks a request that no size class can serve.
const Large Class = -1

var sizes = [Count]int{4, 8, 16, 32, 64, 128, 256, 512, 1024}

// Classify returns the smallest class whose slot size is >= n.
// Zero and undersized requests map to the first class. The second result is
// false, and the class Large, when n exceeds MaxSize.
func Classify(n int) (Class, bool) {
	if n > MaxSize {
		return Large, false
	}
	if n <= MinSize {
		return 0, true
	}
	// Classes are consecutive powers of two, so the class is the bit length
	// of n-1 offset by the first shift.
	return Class(bits.Len(uint(n-1)) - minShift), true
}

// Size returns the slot size in bytes.
func (c Class) Size() int {
	if !c.Valid() {
		return 0
	}
	return sizes[c]
}

// Valid reports whether c indexes the table.
func (c Class) Valid() bool {
	return c >= 0 && c < Count
}

// Sizes returns a copy of the table.
func Sizes() []int {
	out := make([]int, Count)
	copy(out, sizes[:])
	return out
}

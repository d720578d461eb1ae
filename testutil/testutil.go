package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/xmalloc/internal/sizeclass"
)

// MaxLargeSize bounds the sizes drawn for the large bucket.
const MaxLargeSize = 64 << 10

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Size returns a request size uniform in [1, maxSize].
func (r *RNG) Size(maxSize int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return 1 + r.rand.Intn(maxSize)
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
// s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20 rule).
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ClassSize returns a request size whose size class is Zipf-distributed over
// the bucketed classes plus one trailing large bucket, so small classes
// dominate. Within a bucket the size is uniform: (previous slot size, slot
// size] for classes, (MaxSize, MaxLargeSize] for the large bucket.
func (r *RNG) ClassSize(s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.classSizeLocked(s)
}

func (r *RNG) classSizeLocked(s float64) int {
	k := r.zipfLocked(sizeclass.Count+1, s)
	if k == sizeclass.Count {
		return sizeclass.MaxSize + 1 + r.rand.Intn(MaxLargeSize-sizeclass.MaxSize)
	}
	hi := sizeclass.Class(k).Size()
	lo := 0
	if k > 0 {
		lo = sizeclass.Class(k - 1).Size()
	}
	return lo + 1 + r.rand.Intn(hi-lo)
}

// ClassSizes returns n sizes drawn as by ClassSize.
// Locks only once per call (preferred over calling ClassSize in a loop).
func (r *RNG) ClassSizes(n int, s float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = r.classSizeLocked(s)
	}
	return sizes
}

// FillPattern writes a position-dependent pattern derived from tag into dst.
// Neighbouring blocks with different tags never share a pattern, so an
// overlapping write shows up in CheckPattern.
func FillPattern(dst []byte, tag byte) {
	for i := range dst {
		dst[i] = tag ^ byte(i*31)
	}
}

// CheckPattern returns the index of the first byte of src that differs from
// FillPattern(src, tag), or -1 if all match.
func CheckPattern(src []byte, tag byte) int {
	for i, b := range src {
		if b != tag^byte(i*31) {
			return i
		}
	}
	return -1
}

package testutil

import (
	"testing"

	"github.com/hupe1980/xmalloc/internal/sizeclass"
	"github.com/stretchr/testify/assert"
)

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.ClassSizes(50, 1.2)

	rng.Reset()
	v2 := rng.ClassSizes(50, 1.2)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestClassSizes(t *testing.T) {
	rng := NewRNG(42)
	sizes := rng.ClassSizes(10000, 1.2)

	var perClass [sizeclass.Count + 1]int
	for _, n := range sizes {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, MaxLargeSize)
		c, ok := sizeclass.Classify(n)
		if !ok {
			perClass[sizeclass.Count]++
			continue
		}
		perClass[c]++
	}

	for k, n := range perClass {
		assert.Positive(t, n, "bucket %d never drawn", k)
	}
	assert.Greater(t, perClass[0], perClass[sizeclass.Count], "small classes dominate")
}

func TestSize(t *testing.T) {
	rng := NewRNG(1)
	for i := 0; i < 1000; i++ {
		n := rng.Size(10)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 10)
	}
}

func TestZipf(t *testing.T) {
	rng := NewRNG(7)
	assert.Zero(t, rng.Zipf(1, 1.5))

	counts := make([]int, 5)
	for i := 0; i < 5000; i++ {
		counts[rng.Zipf(5, 1.5)]++
	}
	assert.Greater(t, counts[0], counts[4])
}

func TestPattern(t *testing.T) {
	b := make([]byte, 300)
	FillPattern(b, 9)
	assert.Equal(t, -1, CheckPattern(b, 9))
	assert.Equal(t, 0, CheckPattern(b, 10))

	b[123]++
	assert.Equal(t, 123, CheckPattern(b, 9))
	assert.Equal(t, -1, CheckPattern(nil, 1))
}

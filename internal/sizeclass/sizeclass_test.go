package sizeclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Run("rounds up to smallest class", func(t *testing.T) {
		for n := 1; n <= MaxSize; n++ {
			c, ok := Classify(n)
			require.True(t, ok, "size %d", n)

			// Reference: linear search over the table.
			want := -1
			for i, s := range sizes {
				if s >= n {
					want = i
					break
				}
			}
			require.Equal(t, Class(want), c, "size %d", n)
			require.GreaterOrEqual(t, c.Size(), n)
			if c > 0 {
				require.Less(t, Class(c-1).Size(), n)
			}
		}
	})

	t.Run("zero rounds up", func(t *testing.T) {
		c, ok := Classify(0)
		assert.True(t, ok)
		assert.Equal(t, MinSize, c.Size())
	})

	t.Run("exact sizes", func(t *testing.T) {
		for i, s := range sizes {
			c, ok := Classify(s)
			assert.True(t, ok)
			assert.Equal(t, Class(i), c)
		}
	})

	t.Run("large", func(t *testing.T) {
		for _, n := range []int{MaxSize + 1, 4096, 5000, 1 << 20} {
			c, ok := Classify(n)
			assert.False(t, ok)
			assert.Equal(t, Large, c)
			assert.Equal(t, 0, c.Size())
		}
	})

	t.Run("ninety bytes is 128", func(t *testing.T) {
		c, ok := Classify(90)
		assert.True(t, ok)
		assert.Equal(t, 128, c.Size())
	})
}

func TestSizes(t *testing.T) {
	s := Sizes()
	assert.Equal(t, []int{4, 8, 16, 32, 64, 128, 256, 512, 1024}, s)

	s[0] = 99
	assert.Equal(t, 4, Class(0).Size(), "Sizes must return a copy")
}

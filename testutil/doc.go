// Package testutil provides testing utilities for xmalloc.
//
// This package is intended for use in tests, benchmarks and load generators
// only. It provides a seeded, thread-safe RNG that draws allocation sizes the
// way real programs request them, and byte patterns for detecting blocks that
// overlap or get clobbered.
//
// # Request Sizes
//
//	rng := testutil.NewRNG(seed)
//	n := rng.ClassSize(1.2)       // skewed towards small classes
//	sizes := rng.ClassSizes(1000, 1.2)
//
// # Corruption Checks
//
//	b := unsafe.Slice((*byte)(p), n)
//	testutil.FillPattern(b, tag)
//	// ... later
//	if i := testutil.CheckPattern(b, tag); i >= 0 {
//	    // byte i was overwritten
//	}
package testutil

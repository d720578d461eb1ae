// Package sizeclass maps request sizes to the canonical slot sizes served by
// slab pages.
//
// The table is fixed: nine power-of-two classes from 4 to 1024 bytes. Requests
// are rounded up to the smallest class that fits; anything above MaxSize is
// reported as Large and handled by whole-page mappings instead.
package sizeclass

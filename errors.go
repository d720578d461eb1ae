package xmalloc

import (
	"errors"
	"fmt"

	"github.com/hupe1980/xmalloc/internal/arena"
	"github.com/hupe1980/xmalloc/internal/resource"
)

var (
	// ErrInvalidSize is returned for negative request sizes.
	ErrInvalidSize = errors.New("xmalloc: invalid size")
	// ErrMappingFailed is matched by every error caused by the OS refusing
	// to map or unmap memory.
	ErrMappingFailed = errors.New("xmalloc: mapping failed")
	// ErrMemoryLimitExceeded is returned when a mapping would exceed the
	// limit set with WithMemoryLimit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
	// ErrInvalidFree is returned in debug mode for addresses that were never
	// handed out by the allocator.
	ErrInvalidFree = errors.New("xmalloc: invalid free")
	// ErrDoubleFree is returned in debug mode for addresses that were
	// already released.
	ErrDoubleFree = errors.New("xmalloc: double free")
	// ErrClosed is returned by operations on a closed allocator.
	ErrClosed = errors.New("xmalloc: allocator is closed")
)

// MappingError records a failed OS mapping call.
//
// errors.Is(err, ErrMappingFailed) holds for every MappingError; the OS error
// can be accessed via errors.Unwrap.
type MappingError struct {
	Op    string // "map" or "unmap"
	Size  int
	cause error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("xmalloc: %s %d bytes: %v", e.Op, e.Size, e.cause)
}

func (e *MappingError) Unwrap() error { return e.cause }

// Is reports ErrMappingFailed as a match.
func (e *MappingError) Is(target error) bool { return target == ErrMappingFailed }

// translateError maps internal package errors to the public sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, arena.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, arena.ErrMisaligned) {
		return &MappingError{Op: "map", Size: pageSize, cause: err}
	}
	return err
}

package region

import (
	"fmt"

	"github.com/joshuapare/xmalloc/internal/mmap"
)

// Source provides the backing memory for a region.
type Source interface {
	// Acquire returns size zeroed, writable bytes and a function that gives them back.
	Acquire(size int) ([]byte, func() error, error)
}

// MmapSource acquires memory with an anonymous mapping.
type MmapSource struct{}

// Acquire implements Source.
func (MmapSource) Acquire(size int) ([]byte, func() error, error) {
	return mmap.Anonymous(size)
}

// SliceSource acquires memory from the Go heap.
type SliceSource struct{}

// Acquire implements Source.
func (SliceSource) Acquire(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("invalid size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// SourceFunc adapts a function to Source.
type SourceFunc func(size int) ([]byte, func() error, error)

// Acquire implements Source.
func (f SourceFunc) Acquire(size int) ([]byte, func() error, error) { return f(size) }

// DefaultSource is used when an allocator is configured without a Source.
var DefaultSource Source = MmapSource{}

package region

import (
	"fmt"
	"unsafe"

	"github.com/joshuapare/xmalloc/internal/buf"
)

// Region is one contiguous extent of memory.
//
// NOT thread-safe.
type Region struct {
	data    []byte
	release func() error
}

// Acquire obtains size bytes from src. A nil src uses DefaultSource.
func Acquire(src Source, size int) (*Region, error) {
	if src == nil {
		src = DefaultSource
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAcquire, size)
	}
	data, release, err := src.Acquire(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrAcquire, size, err)
	}
	if len(data) < size {
		if release != nil {
			_ = release()
		}
		return nil, fmt.Errorf("%w: source returned %d of %d bytes", ErrAcquire, len(data), size)
	}
	if release == nil {
		release = func() error { return nil }
	}
	return &Region{data: data[:size:size], release: release}, nil
}

// Bytes returns the whole region.
func (r *Region) Bytes() []byte {
	if r == nil {
		return nil
	}
	return r.data
}

// Size returns the region size in bytes.
func (r *Region) Size() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// Base returns the address of the first byte, or 0 for an empty region.
func (r *Region) Base() uintptr {
	if r == nil || len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Contains reports whether off lies in [0, Size()).
func (r *Region) Contains(off int) bool {
	return buf.InRange(off, 0, r.Size())
}

// Release gives the memory back to its source. The region must not be used
// afterwards; a second Release is a no-op.
func (r *Region) Release() error {
	if r == nil || r.release == nil {
		return nil
	}
	err := r.release()
	r.release = nil
	r.data = nil
	return err
}

// String is used in diagnostics.
func (r *Region) String() string {
	return fmt.Sprintf("region[base=%#x size=%d]", r.Base(), r.Size())
}

package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize indicates a negative allocation size.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrOutOfMemory indicates that no free block is large enough for the request.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidPointer indicates a pointer that is not a live allocation in the region.
	ErrInvalidPointer = errors.New("alloc: invalid pointer")

	// ErrCapacityExceeded indicates that a fixed-capacity free list has no slot left.
	ErrCapacityExceeded = errors.New("alloc: free list capacity exceeded")

	// ErrFatalInit indicates that the heap region could not be acquired.
	ErrFatalInit = errors.New("alloc: failed to acquire heap memory")
)

// InvariantError reports a violated structural invariant found by Check.
type InvariantError struct {
	Off    int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("alloc: invariant violated at offset %d: %s", e.Off, e.Reason)
}

func invariantf(off int, format string, args ...any) error {
	return &InvariantError{Off: off, Reason: fmt.Sprintf(format, args...)}
}

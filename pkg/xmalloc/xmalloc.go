package xmalloc

import (
	"errors"

	"github.com/joshuapare/xmalloc/alloc"
)

// Ptr is a handle returned by Malloc.
type Ptr = alloc.Ptr

// Null is the empty handle.
const Null = alloc.Null

// ErrAlreadyInUse is returned by Configure once the default allocator holds a region.
var ErrAlreadyInUse = errors.New("xmalloc: default allocator already in use")

var std = alloc.New(nil)

// Default returns the process-wide allocator.
func Default() *alloc.Allocator { return std }

// Configure replaces the default allocator. It fails once the current one has
// acquired its region; call Reset first to discard it.
func Configure(cfg *alloc.Config) error {
	if std.Bootstrapped() {
		return ErrAlreadyInUse
	}
	std = alloc.New(cfg)
	return nil
}

// Malloc allocates size zero-filled bytes.
func Malloc(size int) (Ptr, error) { return std.Alloc(size) }

// Free releases p.
func Free(p Ptr) error { return std.Free(p) }

// Realloc resizes p, moving its contents when the block cannot hold size bytes.
func Realloc(p Ptr, size int) (Ptr, error) { return std.Realloc(p, size) }

// Bytes returns the payload of p.
func Bytes(p Ptr) ([]byte, error) { return std.Bytes(p) }

// Reset releases the default allocator's region. Every outstanding Ptr
// becomes invalid.
func Reset() error { return std.Reset() }

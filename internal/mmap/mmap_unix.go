//go:build unix

// Package mmap provides platform-specific helpers for mapping anonymous memory
// that backs the allocator's heap region.
package mmap

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Anonymous maps size bytes of private, zero-filled, read-write memory that is
// not backed by any file. The returned cleanup unmaps it.
func Anonymous(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: map %d bytes: %w", size, err)
	}
	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}

// Supported reports whether Anonymous returns real mappings on this platform.
func Supported() bool { return true }

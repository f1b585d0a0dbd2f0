//go:build !unix

package mmap

import "fmt"

// Anonymous allocates size zeroed bytes from the Go heap when anonymous
// mappings are not available.
func Anonymous(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// Supported reports whether Anonymous returns real mappings on this platform.
func Supported() bool { return false }

package format

import "encoding/binary"

// Binary encoding utilities for block headers.
//
// Headers use little-endian byte order regardless of the host so that a region
// dump reads the same on every platform.

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutHeader records the total block size in the header at off.
func PutHeader(b []byte, off int, size int) {
	PutU64(b, off, uint64(size))
}

// ReadHeader returns the total block size recorded in the header at off.
func ReadHeader(b []byte, off int) int {
	return int(ReadU64(b, off))
}

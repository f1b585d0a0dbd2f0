package format

import "github.com/joshuapare/xmalloc/internal/buf"

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignRegion returns n aligned up to the next 1 MiB boundary.
//
// Example:
//
//	AlignRegion(1)       = 1048576
//	AlignRegion(1048576) = 1048576
//	AlignRegion(1048577) = 2097152
func AlignRegion(n int) int {
	return (n + RegionAlignmentMask) & ^RegionAlignmentMask
}

// BlockSize returns the total block size (header + aligned payload) needed to
// serve a request of n payload bytes. ok is false when n is negative or the
// result would overflow int.
func BlockSize(n int) (int, bool) {
	if n < 0 {
		return 0, false
	}
	padded, ok := buf.AddOverflowSafe(n, AlignmentMask+HeaderSize)
	if !ok {
		return 0, false
	}
	return padded & ^AlignmentMask, true
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

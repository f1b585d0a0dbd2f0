// Package buf holds overflow-safe arithmetic and bounds-checked slicing used
// wherever an offset handed in by a caller is turned into a view of the region.
package buf

import (
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Window is Slice with the capacity clamped to the length, so appending to the
// result reallocates instead of writing past off+n into b.
func Window(b []byte, off, n int) ([]byte, bool) {
	s, ok := Slice(b, off, n)
	if !ok {
		return nil, false
	}
	return s[:n:n], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// InRange reports whether off lies in [lo, hi).
func InRange(off, lo, hi int) bool {
	return off >= lo && off < hi
}

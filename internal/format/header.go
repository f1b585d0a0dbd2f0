package format

import "fmt"

// ValidateHeader reads the header at off and checks that it describes a block
// that fits inside b: at least MinBlockSize, aligned, and not running past the
// end of the buffer. It returns the recorded size.
func ValidateHeader(b []byte, off int) (int, error) {
	if off < 0 || off+HeaderSize > len(b) {
		return 0, fmt.Errorf("header at %d: %w", off, ErrTruncated)
	}
	size := ReadHeader(b, off)
	if size < MinBlockSize || !IsAligned(size) {
		return 0, fmt.Errorf("header at %d records %d bytes: %w", off, size, ErrBadHeader)
	}
	if size > len(b)-off {
		return 0, fmt.Errorf("header at %d records %d bytes past end %d: %w",
			off, size, len(b), ErrBadHeader)
	}
	return size, nil
}

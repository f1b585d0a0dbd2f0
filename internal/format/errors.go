package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadHeader indicates a header recorded a size that cannot describe a block.
	ErrBadHeader = errors.New("format: bad block header")
)

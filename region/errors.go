package region

import "errors"

var (
	// ErrAcquire indicates that the source could not provide the requested memory.
	ErrAcquire = errors.New("region: acquire failed")

	// ErrReleased indicates use of a region after Release.
	ErrReleased = errors.New("region: released")
)

package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/xmalloc/internal/format"
)

// isValidPointer reports whether p lies inside the region.
func (a *Allocator) isValidPointer(p Ptr) bool {
	if a.region == nil || uint64(p) > math.MaxInt {
		return false
	}
	return a.region.Contains(int(p))
}

// lookup resolves p to its block. It rejects pointers outside the region and
// in-range pointers that are not the payload start of a live allocation
// (interior pointers, already freed blocks). Nothing is mutated on failure.
func (a *Allocator) lookup(p Ptr, op string) (int, int, error) {
	if !a.isValidPointer(p) {
		return 0, 0, a.invalidPointer(op, p, "outside heap region")
	}
	off := int(p) - format.HeaderSize
	total, ok := a.live[off]
	if !ok {
		return 0, 0, a.invalidPointer(op, p, "not a live allocation")
	}
	return off, total, nil
}

func (a *Allocator) invalidPointer(op string, p Ptr, reason string) error {
	a.stats.InvalidPointer++
	a.log.Warn("attempt to "+op+" invalid pointer",
		"ptr", fmt.Sprintf("%#x", uint64(p)),
		"reason", reason)
	return fmt.Errorf("%w: %s %#x: %s", ErrInvalidPointer, op, uint64(p), reason)
}

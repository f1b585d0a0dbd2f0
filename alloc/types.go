package alloc

import (
	"fmt"

	"github.com/joshuapare/xmalloc/internal/format"
)

// Ptr is an opaque handle to an allocation: the payload offset inside the region.
type Ptr uint64

// Null is the empty result. It never refers to an allocation.
const Null Ptr = 0

// IsNull reports whether p is Null.
func (p Ptr) IsNull() bool { return p == Null }

// payloadPtr returns the handle for the block starting at off.
func payloadPtr(off int) Ptr { return Ptr(off + format.HeaderSize) }

// FitPolicy selects which free block serves an allocation.
type FitPolicy uint8

const (
	// BestFit selects the smallest free block that is large enough.
	BestFit FitPolicy = iota
	// FirstFit selects the first large-enough block in heap array order.
	FirstFit
)

func (p FitPolicy) String() string {
	switch p {
	case BestFit:
		return "best-fit"
	case FirstFit:
		return "first-fit"
	default:
		return "unknown"
	}
}

// ParseFitPolicy accepts the names printed by FitPolicy.String.
func ParseFitPolicy(s string) (FitPolicy, error) {
	switch s {
	case "best-fit", "best":
		return BestFit, nil
	case "first-fit", "first":
		return FirstFit, nil
	}
	return 0, fmt.Errorf("alloc: unknown fit policy %q", s)
}

// CoalesceMode selects how a release finds physically adjacent free blocks.
type CoalesceMode uint8

const (
	// CoalesceIndexed looks neighbours up in the address-ordered index.
	CoalesceIndexed CoalesceMode = iota
	// CoalesceScan rescans every pair of free blocks after each merge.
	CoalesceScan
)

func (m CoalesceMode) String() string {
	switch m {
	case CoalesceIndexed:
		return "indexed"
	case CoalesceScan:
		return "scan"
	default:
		return "unknown"
	}
}

// ParseCoalesceMode accepts the names printed by CoalesceMode.String.
func ParseCoalesceMode(s string) (CoalesceMode, error) {
	switch s {
	case "indexed":
		return CoalesceIndexed, nil
	case "scan":
		return CoalesceScan, nil
	}
	return 0, fmt.Errorf("alloc: unknown coalesce mode %q", s)
}

// BlockInfo describes one block found by walking the region.
type BlockInfo struct {
	Off  int  // Offset of the header
	Size int  // Total size including header
	Free bool // Tracked by the free list
}

// Ptr returns the payload handle of an allocated block, or Null for a free one.
func (b BlockInfo) Ptr() Ptr {
	if b.Free {
		return Null
	}
	return payloadPtr(b.Off)
}

// End returns the offset just past the block.
func (b BlockInfo) End() int { return b.Off + b.Size }

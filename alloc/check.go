package alloc

import (
	"github.com/joshuapare/xmalloc/internal/format"
)

// Check walks the region and verifies the allocator's structural invariants:
//
//   - headers chain from offset 0 to exactly the region end
//   - every block is either live or free, never both, never neither
//   - header sizes agree with the side-table and the free list
//   - no two free blocks are physically adjacent
//   - the free heap is ordered and its indexes agree with each other
//   - live bytes + free bytes == region size
//
// It returns the first violation as *InvariantError.
func (a *Allocator) Check() error {
	if a.region == nil {
		if len(a.live) != 0 || (a.free != nil && a.free.Len() != 0) {
			return invariantf(0, "state present without a region")
		}
		return nil
	}

	data := a.region.Bytes()
	off, liveSeen, freeSeen := 0, 0, 0
	prevFree := false

	for off < len(data) {
		size, err := format.ValidateHeader(data, off)
		if err != nil {
			return invariantf(off, "%v", err)
		}

		liveSize, isLive := a.live[off]
		fb, isFree := a.free.byOff[off]

		switch {
		case isLive && isFree:
			return invariantf(off, "block is both allocated and free")
		case isLive:
			if liveSize != size {
				return invariantf(off, "header records %d bytes, side-table %d", size, liveSize)
			}
			liveSeen++
			prevFree = false
		case isFree:
			if fb.size != size {
				return invariantf(off, "header records %d bytes, free list %d", size, fb.size)
			}
			if prevFree {
				return invariantf(off, "free block adjacent to preceding free block")
			}
			freeSeen++
			prevFree = true
		default:
			return invariantf(off, "block of %d bytes is neither allocated nor free", size)
		}

		off += size
	}

	if off != len(data) {
		return invariantf(off, "block chain ends at %d, region is %d bytes", off, len(data))
	}
	if liveSeen != len(a.live) {
		return invariantf(off, "%d live blocks on chain, side-table has %d", liveSeen, len(a.live))
	}
	if freeSeen != a.free.Len() || len(a.free.byOff) != a.free.Len() || a.free.byAddr.Len() != a.free.Len() {
		return invariantf(off, "free blocks: chain %d, heap %d, byOff %d, byAddr %d",
			freeSeen, a.free.Len(), len(a.free.byOff), a.free.byAddr.Len())
	}
	if a.free.capacity > 0 && a.free.Len() > a.free.capacity {
		return invariantf(off, "%d free blocks exceed capacity %d", a.free.Len(), a.free.capacity)
	}

	for i, fb := range a.free.heap {
		if fb.heapIndex != i {
			return invariantf(fb.off, "heap index %d recorded as %d", i, fb.heapIndex)
		}
		if i > 0 {
			if parent := a.free.heap[(i-1)/2]; parent.size > fb.size {
				return invariantf(fb.off, "heap order: parent %d bytes > child %d bytes", parent.size, fb.size)
			}
		}
	}

	if a.liveBytes+a.free.bytes != len(data) {
		return invariantf(0, "accounting: live %d + free %d != region %d",
			a.liveBytes, a.free.bytes, len(data))
	}
	return nil
}

// Blocks walks the region and returns every block in address order. It
// returns nil before the region is acquired. The walk stops at the first
// unreadable header; use Check to find out why.
func (a *Allocator) Blocks() []BlockInfo {
	if a.region == nil {
		return nil
	}
	data := a.region.Bytes()
	var out []BlockInfo
	for off := 0; off < len(data); {
		size, err := format.ValidateHeader(data, off)
		if err != nil {
			break
		}
		out = append(out, BlockInfo{Off: off, Size: size, Free: a.free.at(off) != nil})
		off += size
	}
	return out
}

// FreeBlocks returns the tracked free blocks in address order.
func (a *Allocator) FreeBlocks() []BlockInfo {
	if a.free == nil {
		return nil
	}
	out := make([]BlockInfo, 0, a.free.Len())
	a.free.ascend(func(fb *freeBlock) bool {
		out = append(out, BlockInfo{Off: fb.off, Size: fb.size, Free: true})
		return true
	})
	return out
}

package alloc

import (
	"fmt"

	"github.com/joshuapare/xmalloc/internal/format"
)

// Free returns the allocation p to the free list and merges it with any
// physically adjacent free blocks.
//
// Null is a no-op. An invalid pointer is reported and ignored. With a fixed
// free-list capacity, ErrCapacityExceeded means the block could not be
// tracked; it stays allocated and may be freed again later.
func (a *Allocator) Free(p Ptr) error {
	a.stats.FreeCalls++

	if p == Null {
		return nil
	}

	off, total, err := a.lookup(p, "free")
	if err != nil {
		return err
	}

	if err := a.release(off, total); err != nil {
		return err
	}

	delete(a.live, off)
	a.liveBytes -= total
	a.stats.BytesFreed += int64(total)

	a.log.Debug("free", "off", off, "total", total, "free_blocks", a.free.Len())
	return nil
}

// release hands [off, off+size) to the free list and coalesces. It either
// completes or leaves the free list untouched.
func (a *Allocator) release(off, size int) error {
	var err error
	switch a.cfg.Coalesce {
	case CoalesceScan:
		err = a.releaseScan(off, size)
	default:
		err = a.releaseIndexed(off, size)
	}
	if err != nil {
		a.stats.CapacityExceeded++
		a.log.Warn("free heap overflow",
			"off", off,
			"size", size,
			"capacity", a.cfg.FreeListCapacity)
		return fmt.Errorf("release block at %d: %w", off, err)
	}
	return nil
}

// releaseIndexed merges with the successor found by offset and the
// predecessor found in the address index.
func (a *Allocator) releaseIndexed(off, size int) error {
	next := a.free.at(off + size)
	prev := a.free.endingAt(off)

	// Check before touching anything: with no neighbour to absorb into, the
	// block needs a slot of its own.
	if next == nil && prev == nil && a.free.full() {
		return ErrCapacityExceeded
	}

	data := a.region.Bytes()

	if next != nil {
		a.stats.CoalesceForward++
		a.free.remove(next)
		size += next.size
	}

	if prev != nil {
		a.stats.CoalesceBackward++
		a.free.grow(prev, size)
		format.PutHeader(data, prev.off, prev.size)
		return nil
	}

	// Cannot fail: either there was room, or removing next made some.
	if _, err := a.free.insert(off, size); err != nil {
		return err
	}
	format.PutHeader(data, off, size)
	return nil
}

// releaseScan inserts the block, then merges by rescanning every pair of free
// blocks until no two are adjacent.
func (a *Allocator) releaseScan(off, size int) error {
	cur, err := a.free.insert(off, size)
	if err != nil {
		return err
	}

	data := a.region.Bytes()
	format.PutHeader(data, off, size)

	a.free.mergeAdjacentScan(func(lo, hi *freeBlock) {
		switch {
		case lo == cur:
			a.stats.CoalesceForward++
		case hi == cur:
			a.stats.CoalesceBackward++
			cur = lo
		}
		format.PutHeader(data, lo.off, lo.size)
	})
	return nil
}

package alloc

import (
	"fmt"

	"github.com/joshuapare/xmalloc/internal/format"
)

// Realloc resizes the allocation p to size bytes.
//
//   - p == Null behaves as Alloc(size).
//   - size == 0 behaves as Free(p) and returns Null.
//   - If the block already holds size bytes, p is returned unchanged. With
//     Config.SplitOnShrink the surplus tail is returned to the free list.
//   - Otherwise the contents move to a new block and the old one is freed.
//
// On any error the original allocation is left intact.
func (a *Allocator) Realloc(p Ptr, size int) (Ptr, error) {
	a.stats.ReallocCalls++

	if p == Null {
		return a.Alloc(size)
	}
	if size == 0 {
		return Null, a.Free(p)
	}
	if size < 0 {
		return Null, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	off, oldTotal, err := a.lookup(p, "realloc")
	if err != nil {
		return Null, err
	}

	need, ok := format.BlockSize(size)
	if ok && need <= oldTotal {
		if a.cfg.SplitOnShrink {
			a.shrink(off, oldTotal, need)
		}
		return p, nil
	}

	np, err := a.Alloc(size)
	if err != nil {
		return Null, err
	}

	data := a.region.Bytes()
	n := min(oldTotal-format.HeaderSize, size)
	copy(data[int(np):int(np)+n], data[int(p):int(p)+n])

	if err := a.Free(p); err != nil {
		// The copy is complete; the caller owns np either way.
		return np, fmt.Errorf("realloc: old block still allocated: %w", err)
	}

	a.log.Debug("realloc moved", "from", off, "to", int(np)-format.HeaderSize, "copied", n)
	return np, nil
}

// shrink trims a live block to need bytes and releases the tail. The block is
// left as it was if the tail is too small or cannot be tracked.
func (a *Allocator) shrink(off, total, need int) {
	tail := total - need
	if tail < format.MinBlockSize {
		return
	}
	if err := a.release(off+need, tail); err != nil {
		return
	}
	format.PutHeader(a.region.Bytes(), off, need)
	a.live[off] = need
	a.liveBytes -= tail
	a.stats.ShrinkSplits++
}

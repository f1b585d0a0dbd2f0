package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/xmalloc/internal/buf"
	"github.com/joshuapare/xmalloc/internal/format"
	"github.com/joshuapare/xmalloc/region"
)

// Allocator hands out blocks from a single lazily acquired region.
//
// The zero value is not usable; construct with New.
type Allocator struct {
	cfg Config
	log *slog.Logger

	region *region.Region
	free   *freeList

	// live is the side-table of allocated blocks: header offset -> total size.
	// Pointer validation consults it instead of trusting whatever header sits
	// in front of a caller-supplied pointer.
	live      map[int]int
	liveBytes int

	stats Stats
}

// New creates an allocator. The region is not acquired until the first Alloc.
//
// Parameters:
//   - cfg: configuration (use nil for DefaultConfig)
func New(cfg *Config) *Allocator {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	c := cfg.withDefaults()
	return &Allocator{
		cfg: c,
		log: c.Logger,
	}
}

// Config returns the effective configuration.
func (a *Allocator) Config() Config { return a.cfg }

// Bootstrapped reports whether the region has been acquired.
func (a *Allocator) Bootstrapped() bool { return a.region != nil }

// Region returns the backing region, or nil before the first allocation.
func (a *Allocator) Region() *region.Region { return a.region }

// Alloc returns a handle to size zero-filled bytes.
//
// A zero size yields (Null, nil). A negative size yields ErrInvalidSize. When
// no free block is large enough the result is (Null, ErrOutOfMemory) and a
// diagnostic is logged.
func (a *Allocator) Alloc(size int) (Ptr, error) {
	a.stats.AllocCalls++

	if size == 0 {
		return Null, nil
	}
	if size < 0 {
		return Null, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	if err := a.bootstrap(); err != nil {
		return Null, err
	}

	need, ok := format.BlockSize(size)
	if !ok || need > a.region.Size() {
		return Null, a.outOfMemory(size, need)
	}

	fb := a.free.extract(need, a.cfg.Policy)
	if fb == nil {
		return Null, a.outOfMemory(size, need)
	}

	off, total := a.split(fb, need)
	a.commit(off, total)

	a.log.Debug("alloc",
		"size", size,
		"need", need,
		"off", off,
		"total", total,
		"policy", a.cfg.Policy)

	return payloadPtr(off), nil
}

// Bytes returns the payload of a live allocation. The slice covers the whole
// usable size and its capacity ends at the block boundary.
func (a *Allocator) Bytes(p Ptr) ([]byte, error) {
	off, total, err := a.lookup(p, "bytes")
	if err != nil {
		return nil, err
	}
	payload, ok := buf.Window(a.region.Bytes(), off+format.HeaderSize, total-format.HeaderSize)
	if !ok {
		return nil, invariantf(off, "block of %d bytes runs past region end", total)
	}
	return payload, nil
}

// UsableSize returns the payload capacity of a live allocation.
func (a *Allocator) UsableSize(p Ptr) (int, error) {
	_, total, err := a.lookup(p, "usable size")
	if err != nil {
		return 0, err
	}
	return total - format.HeaderSize, nil
}

// Reset releases the region and clears all state. The next Alloc acquires a
// fresh region. Handles obtained before Reset become invalid.
func (a *Allocator) Reset() error {
	var err error
	if a.region != nil {
		err = a.region.Release()
	}
	a.region = nil
	a.free = nil
	a.live = nil
	a.liveBytes = 0
	a.stats = Stats{}
	return err
}

// bootstrap acquires the region and seeds the free list with one block
// spanning all of it.
func (a *Allocator) bootstrap() error {
	if a.region != nil {
		return nil
	}

	size := format.AlignRegion(a.cfg.RegionSize)
	r, err := region.Acquire(a.cfg.Source, size)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFatalInit, err)
		a.log.Error("failed to acquire heap memory", "size", size, "err", err)
		a.cfg.OnFatal(err)
		return err
	}

	free := newFreeList(a.cfg.FreeListCapacity)
	if _, err := free.insert(0, size); err != nil {
		_ = r.Release()
		return err
	}
	format.PutHeader(r.Bytes(), 0, size)

	a.region = r
	a.free = free
	a.live = make(map[int]int, 64)

	a.log.Debug("heap region acquired",
		"base", fmt.Sprintf("%#x", r.Base()),
		"size", size,
		"capacity", a.cfg.FreeListCapacity)
	return nil
}

// split carves need bytes off the front of fb and returns the tail to the
// free list. A tail too small to hold a block stays attached to the
// allocation.
func (a *Allocator) split(fb *freeBlock, need int) (int, int) {
	off, total := fb.off, fb.size
	rem := total - need
	if rem < format.MinBlockSize {
		return off, total
	}

	tail := off + need
	if _, err := a.free.insert(tail, rem); err != nil {
		// extract freed a slot just before, so a full list here means a caller
		// inserted behind our back.
		a.stats.CapacityExceeded++
		a.log.Warn("split remainder kept with allocation", "off", tail, "size", rem, "err", err)
		return off, total
	}
	format.PutHeader(a.region.Bytes(), tail, rem)
	a.stats.SplitCount++
	return off, need
}

// commit marks [off, off+total) allocated: header, zeroed payload, side-table.
func (a *Allocator) commit(off, total int) {
	data := a.region.Bytes()
	format.PutHeader(data, off, total)
	clear(data[off+format.HeaderSize : off+total])

	a.live[off] = total
	a.liveBytes += total
	a.stats.BytesAllocated += int64(total)
}

func (a *Allocator) outOfMemory(size, need int) error {
	a.stats.OutOfMemory++
	a.log.Warn("out of memory",
		"size", size,
		"need", need,
		"free_blocks", a.free.Len(),
		"free_bytes", a.free.bytes,
		"largest_free", a.free.largest())
	return fmt.Errorf("%w: %d bytes requested", ErrOutOfMemory, size)
}

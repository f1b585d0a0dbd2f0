// Package alloc implements a dynamic memory allocator over a single heap region.
//
// # Overview
//
// The allocator carves one contiguous region (see package region) into blocks.
// Every block starts with an 8-byte header recording its total size, so the
// region is always a gapless chain of allocated and free blocks. Free blocks
// are tracked by a binary min-heap keyed on size; an address-ordered B-tree
// over the same blocks lets a release find its physical neighbours directly.
//
// # Allocator Interface
//
//   - Alloc(size): carve a zero-filled block, returning an opaque Ptr
//   - Free(ptr): return a block and merge it with adjacent free blocks
//   - Realloc(ptr, size): keep, or move the contents to a larger block
//   - Bytes(ptr): view a live allocation's payload
//
// A Ptr is the payload offset inside the region. Null (0) is never a valid
// payload because every payload follows a header.
//
// # Usage Example
//
//	a := alloc.New(nil)
//	defer a.Reset()
//
//	p, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	b, _ := a.Bytes(p)
//	copy(b, "hello")
//
//	p, err = a.Realloc(p, 400)
//	...
//	_ = a.Free(p)
//
// # Region Bootstrap
//
// The region is acquired lazily by the first Alloc, sized to Config.RegionSize
// rounded up to 1 MiB, and never grown. Failure to acquire it is fatal: the
// allocator logs the error and calls Config.OnFatal, which exits the process
// by default. Exhaustion afterwards is reported as ErrOutOfMemory and lasts
// until blocks are freed.
//
// # Selection and Coalescing
//
// Config.Policy picks the free block that serves a request:
//
//	FirstFit: first heap slot large enough, scanning in array order (O(n))
//	BestFit:  smallest block large enough, found by walking the heap and
//	          pruning every subtree whose root already fits
//
// Config.Coalesce picks how a release merges neighbours:
//
//	CoalesceIndexed: predecessor/successor lookup in the address index
//	CoalesceScan:    repeated all-pairs scan until no two blocks touch
//
// Both modes leave no two free blocks physically adjacent.
//
// # Failure Semantics
//
// Out-of-memory, invalid pointers and free-list capacity exhaustion are
// reported as errors and as diagnostics on the configured slog.Logger. None of
// them mutate allocator state.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally.
package alloc

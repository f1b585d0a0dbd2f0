package alloc

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats holds allocator counters and a snapshot of region usage.
type Stats struct {
	AllocCalls       int   // Total Alloc() calls (including those made by Realloc)
	FreeCalls        int   // Total Free() calls (including those made by Realloc)
	ReallocCalls     int   // Total Realloc() calls
	SplitCount       int   // Blocks split on allocation
	ShrinkSplits     int   // Tails returned by shrinking Realloc
	CoalesceForward  int   // Merges with the following block
	CoalesceBackward int   // Merges with the preceding block
	OutOfMemory      int   // Allocations that found no block
	InvalidPointer   int   // Rejected pointers
	CapacityExceeded int   // Releases refused by a full free list
	BytesAllocated   int64 // Total bytes allocated (including headers)
	BytesFreed       int64 // Total bytes freed (including headers)

	// Snapshot, filled by Stats()
	HeapPushes  int // Free-list insertions
	HeapRemoves int // Free-list removals
	RegionSize  int
	LiveBlocks  int
	LiveBytes   int
	FreeBlocks  int
	FreeBytes   int
	LargestFree int
}

// Stats returns the counters plus a snapshot of current usage.
func (a *Allocator) Stats() Stats {
	s := a.stats
	s.RegionSize = a.region.Size()
	s.LiveBlocks = len(a.live)
	s.LiveBytes = a.liveBytes
	if a.free != nil {
		s.HeapPushes = a.free.pushes
		s.HeapRemoves = a.free.removes
		s.FreeBlocks = a.free.Len()
		s.FreeBytes = a.free.bytes
		s.LargestFree = a.free.largest()
	}
	return s
}

// Fragmentation returns 1 - largest free block / total free bytes, or 0 when
// nothing is free.
func (s Stats) Fragmentation() float64 {
	if s.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(s.LargestFree)/float64(s.FreeBytes)
}

// PrintStats writes a human-readable report to w.
func (a *Allocator) PrintStats(w io.Writer) {
	s := a.Stats()
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "\n=== ALLOCATOR STATISTICS ===\n")
	p.Fprintf(w, "Policy:             %s / %s coalescing\n", a.cfg.Policy, a.cfg.Coalesce)
	p.Fprintf(w, "Region size:        %d bytes\n", s.RegionSize)
	p.Fprintf(w, "Alloc calls:        %d (out of memory: %d)\n", s.AllocCalls, s.OutOfMemory)
	p.Fprintf(w, "Free calls:         %d (invalid pointer: %d, capacity exceeded: %d)\n",
		s.FreeCalls, s.InvalidPointer, s.CapacityExceeded)
	p.Fprintf(w, "Realloc calls:      %d\n", s.ReallocCalls)
	p.Fprintf(w, "Bytes allocated:    %d\n", s.BytesAllocated)
	p.Fprintf(w, "Bytes freed:        %d\n", s.BytesFreed)
	p.Fprintf(w, "Block splits:       %d (shrink: %d)\n", s.SplitCount, s.ShrinkSplits)
	p.Fprintf(w, "Coalesce fwd:       %d\n", s.CoalesceForward)
	p.Fprintf(w, "Coalesce back:      %d\n", s.CoalesceBackward)
	p.Fprintf(w, "Heap pushes:        %d\n", s.HeapPushes)
	p.Fprintf(w, "Heap removes:       %d\n", s.HeapRemoves)

	p.Fprintf(w, "\nUsage:\n")
	p.Fprintf(w, "  Live blocks:      %d (%d bytes)\n", s.LiveBlocks, s.LiveBytes)
	p.Fprintf(w, "  Free blocks:      %d (%d bytes)\n", s.FreeBlocks, s.FreeBytes)
	p.Fprintf(w, "  Largest free:     %d bytes\n", s.LargestFree)
	p.Fprintf(w, "  Fragmentation:    %.1f%%\n", 100*s.Fragmentation())

	if hist := a.FreeHistogram(nil); len(hist) > 0 {
		p.Fprintf(w, "\nFree Block Sizes:\n")
		for _, b := range hist {
			if b.Hi < 0 {
				p.Fprintf(w, "  %9d+          %6d blocks  %d bytes\n", b.Lo, b.Count, b.Bytes)
				continue
			}
			p.Fprintf(w, "  %9d - %-9d %4d blocks  %d bytes\n", b.Lo, b.Hi, b.Count, b.Bytes)
		}
	}
	p.Fprintf(w, "============================\n\n")
}

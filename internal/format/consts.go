// Package format defines the in-region block layout used by the allocator:
// the size header that prefixes every block and the alignment rules that all
// block sizes obey. Keeping the layout here lets the allocator, the invariant
// checker and the tests agree on a single definition.
package format

const (
	// Alignment is the payload alignment unit. Every block size is a multiple of it.
	Alignment = 8

	// AlignmentMask is Alignment-1, used for round-up arithmetic.
	AlignmentMask = Alignment - 1

	// HeaderSize is the size of the block header. The header holds the total
	// block size (header + payload) as a little-endian uint64.
	HeaderSize = 8

	// MinBlockSize is the smallest block that may exist in the region: a header
	// plus one alignment unit of payload. A split remainder smaller than this is
	// left attached to the allocation instead of becoming a free block.
	MinBlockSize = HeaderSize + Alignment

	// RegionAlignment is the granularity of the bootstrap region size (1 MiB).
	RegionAlignment = 1 << 20

	// RegionAlignmentMask is RegionAlignment-1.
	RegionAlignmentMask = RegionAlignment - 1
)

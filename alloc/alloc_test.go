package alloc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/xmalloc/internal/format"
	"github.com/joshuapare/xmalloc/region"
)

func TestAllocZeroReturnsNull(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)

	for i := 0; i < 3; i++ {
		p, err := a.Alloc(0)
		require.NoError(t, err)
		assert.Equal(t, Null, p)
	}
	assert.False(t, a.Bootstrapped(), "zero-size request should not acquire the region")
}

func TestAllocNegativeSize(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)

	p, err := a.Alloc(-1)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Equal(t, Null, p)
}

func TestAllocBootstrapsLazily(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	require.False(t, a.Bootstrapped())

	p := mustAlloc(t, a, 1)
	assert.True(t, a.Bootstrapped())
	assert.Equal(t, DefaultRegionSize, a.Region().Size())
	assert.Equal(t, Ptr(format.HeaderSize), p, "first allocation starts at the region base")
	assertInvariants(t, a)
}

func TestRegionSizeRoundedToMiB(t *testing.T) {
	a := newTestAllocator(t, Config{RegionSize: DefaultRegionSize + 1})
	mustAlloc(t, a, 1)
	assert.Equal(t, 2*DefaultRegionSize, a.Region().Size())
}

func TestAllocAlignmentAndSize(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)

	for _, size := range []int{1, 7, 8, 9, 15, 16, 17, 100, 1000, 4095} {
		p := mustAlloc(t, a, size)
		assert.Zero(t, int(p)%format.Alignment, "size %d: pointer %d not 8-aligned", size, p)

		usable, err := a.UsableSize(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, usable, size)
		assert.Less(t, usable, size+format.Alignment, "size %d over-allocated", size)
		assert.Len(t, mustBytes(t, a, p), usable)
	}
	assertInvariants(t, a)
}

func TestAllocReuseIsZeroFilled(t *testing.T) {
	for _, v := range allVariants() {
		t.Run(v.name, func(t *testing.T) {
			a := newTestAllocator(t, v.cfg)

			p := mustAlloc(t, a, 100)
			b := mustBytes(t, a, p)
			assert.Equal(t, make([]byte, len(b)), b)
			fill(b, 'B')
			require.NoError(t, a.Free(p))

			q := mustAlloc(t, a, 100)
			assert.Equal(t, make([]byte, 104), mustBytes(t, a, q), "reused block must be zeroed")
			assertInvariants(t, a)
		})
	}
}

func TestAllocDistinctBlocksDoNotOverlap(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)

	ptrs := make([]Ptr, 0, 64)
	for i := 0; i < 64; i++ {
		p := mustAlloc(t, a, 10+i*7)
		fill(mustBytes(t, a, p), byte(i))
		ptrs = append(ptrs, p)
	}
	for i, p := range ptrs {
		b := mustBytes(t, a, p)
		assert.Equal(t, bytes.Repeat([]byte{byte(i)}, len(b)), b, "block %d clobbered", i)
	}
	assertInvariants(t, a)
}

func TestAllocSplitThreshold(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)

	// Leaves an 8-byte remainder, which cannot hold a block.
	p := mustAlloc(t, a, DefaultRegionSize-2*format.HeaderSize)
	usable, err := a.UsableSize(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultRegionSize-format.HeaderSize, usable, "remainder should be absorbed")
	assert.Zero(t, a.Stats().FreeBlocks)
	assert.Zero(t, a.Stats().SplitCount)
	assertInvariants(t, a)

	require.NoError(t, a.Free(p))

	// Leaves exactly MinBlockSize, which is split off.
	p = mustAlloc(t, a, DefaultRegionSize-format.HeaderSize-format.MinBlockSize)
	usable, err = a.UsableSize(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultRegionSize-format.HeaderSize-format.MinBlockSize, usable)
	assert.Equal(t, 1, a.Stats().FreeBlocks)
	assert.Equal(t, format.MinBlockSize, a.Stats().FreeBytes)
	assertInvariants(t, a)
}

func TestAllocOutOfMemory(t *testing.T) {
	for _, v := range allVariants() {
		t.Run(v.name, func(t *testing.T) {
			a := newTestAllocator(t, v.cfg)

			p, err := a.Alloc(DefaultRegionSize)
			require.ErrorIs(t, err, ErrOutOfMemory)
			assert.Equal(t, Null, p)

			// The whole region is still available.
			whole := mustAlloc(t, a, DefaultRegionSize-format.HeaderSize)
			_, err = a.Alloc(1)
			require.ErrorIs(t, err, ErrOutOfMemory)
			assert.Equal(t, 2, a.Stats().OutOfMemory)
			assertInvariants(t, a)

			require.NoError(t, a.Free(whole))
			mustAlloc(t, a, 1)
			assertInvariants(t, a)
		})
	}
}

func TestAllocHugeSizeDoesNotOverflow(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)

	const maxInt = int(^uint(0) >> 1)
	_, err := a.Alloc(maxInt)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assertInvariants(t, a)
}

func TestFreeNullIsNoop(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	require.NoError(t, a.Free(Null))
	assert.False(t, a.Bootstrapped())
}

func TestFreeInvalidPointerLeavesStateUnchanged(t *testing.T) {
	for _, v := range allVariants() {
		t.Run(v.name, func(t *testing.T) {
			a := newTestAllocator(t, v.cfg)

			p := mustAlloc(t, a, 64)
			q := mustAlloc(t, a, 32)
			require.NoError(t, a.Free(q))
			fill(mustBytes(t, a, p), 'x')

			snapshot := bytes.Clone(a.Region().Bytes())
			blocks := a.Blocks()
			free := a.FreeBlocks()
			before := a.Stats()

			bad := []Ptr{
				Ptr(DefaultRegionSize),     // first byte past the region
				Ptr(1 << 40),               // far outside
				^Ptr(0),                    // would overflow int
				p + 8,                      // interior pointer
				q,                          // already freed
				Ptr(format.HeaderSize + 1), // misaligned
			}
			for _, ptr := range bad {
				err := a.Free(ptr)
				require.ErrorIs(t, err, ErrInvalidPointer, "ptr %#x", uint64(ptr))
			}

			assert.Equal(t, snapshot, a.Region().Bytes(), "region bytes changed")
			assert.Equal(t, blocks, a.Blocks())
			assert.Equal(t, free, a.FreeBlocks())
			after := a.Stats()
			assert.Equal(t, before.InvalidPointer+len(bad), after.InvalidPointer)
			assert.Equal(t, before.LiveBytes, after.LiveBytes)
			assertInvariants(t, a)
		})
	}
}

func TestFreeBeforeBootstrapIsInvalid(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	require.ErrorIs(t, a.Free(Ptr(64)), ErrInvalidPointer)
	assert.False(t, a.Bootstrapped())
}

func TestBytesInvalidPointer(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 16)

	_, err := a.Bytes(p + 8)
	require.ErrorIs(t, err, ErrInvalidPointer)

	_, err = a.UsableSize(Ptr(1 << 30))
	require.ErrorIs(t, err, ErrInvalidPointer)
}

func TestBytesCapacityEndsAtBlock(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 24)
	q := mustAlloc(t, a, 24)
	fill(mustBytes(t, a, q), 'q')

	b := mustBytes(t, a, p)
	assert.Equal(t, len(b), cap(b))
	b = append(b, 'x') // must reallocate, not spill into q
	_ = b
	assert.Equal(t, bytes.Repeat([]byte{'q'}, 24), mustBytes(t, a, q))
}

func TestResetReleasesRegion(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 128)

	require.NoError(t, a.Reset())
	assert.False(t, a.Bootstrapped())
	assert.Zero(t, a.Stats().AllocCalls)
	require.ErrorIs(t, a.Free(p), ErrInvalidPointer)

	mustAlloc(t, a, 128)
	assertInvariants(t, a)
}

func TestMmapBackedAllocator(t *testing.T) {
	a := newTestAllocator(t, Config{Source: region.MmapSource{}})
	p := mustAlloc(t, a, 4096)
	fill(mustBytes(t, a, p), 0xAB)
	require.NoError(t, a.Free(p))
	assertInvariants(t, a)
}

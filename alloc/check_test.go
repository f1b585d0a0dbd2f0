package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/xmalloc/internal/format"
)

func TestCheckFreshAllocator(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	require.NoError(t, a.Check())
	assert.Nil(t, a.Blocks())
	assert.Nil(t, a.FreeBlocks())
}

func TestCheckDetectsHeaderMismatch(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 24)
	mustAlloc(t, a, 24)

	format.PutHeader(a.Region().Bytes(), blockOff(p), 16)

	err := a.Check()
	var ie *InvariantError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, blockOff(p), ie.Off)
	assert.Contains(t, ie.Reason, "side-table")
}

func TestCheckDetectsBrokenChain(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 24)

	format.PutHeader(a.Region().Bytes(), blockOff(p), 3)

	var ie *InvariantError
	require.ErrorAs(t, a.Check(), &ie)
	assert.Equal(t, 0, ie.Off)
	assert.Contains(t, ie.Error(), "invariant violated at offset 0")
}

func TestCheckDetectsAdjacentFreeBlocks(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 24)
	q := mustAlloc(t, a, 24)
	mustAlloc(t, a, 24)

	// Bypass coalescing: track both blocks directly.
	for _, ptr := range []Ptr{p, q} {
		off := blockOff(ptr)
		size := a.live[off]
		delete(a.live, off)
		a.liveBytes -= size
		_, err := a.free.insert(off, size)
		require.NoError(t, err)
	}

	err := a.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adjacent")
}

func TestCheckDetectsAccountingDrift(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	mustAlloc(t, a, 24)
	a.liveBytes += 8

	err := a.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounting")
}

func TestBlocksWalk(t *testing.T) {
	a := newTestAllocator(t, DefaultConfig)
	p := mustAlloc(t, a, 24)
	q := mustAlloc(t, a, 100)
	require.NoError(t, a.Free(p))

	blocks := a.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, BlockInfo{Off: 0, Size: 32, Free: true}, blocks[0])
	assert.Equal(t, BlockInfo{Off: 32, Size: 112}, blocks[1])
	assert.Equal(t, q, blocks[1].Ptr())
	assert.Equal(t, Null, blocks[0].Ptr())
	assert.Equal(t, DefaultRegionSize, blocks[2].End())
	assert.True(t, blocks[2].Free)
}

package alloc

import (
	"container/heap"

	"github.com/google/btree"
)

// btreeDegree is the degree of the address index.
const btreeDegree = 16

// freeBlock represents a free block in the region.
type freeBlock struct {
	off       int // Offset of the header
	size      int // Total size including header
	heapIndex int // Position in heap (for heap.Remove / heap.Fix)
}

func (b *freeBlock) end() int { return b.off + b.size }

// freeHeap implements heap.Interface for a min-heap keyed on block size.
type freeHeap []*freeBlock

func (h *freeHeap) Len() int { return len(*h) }

func (h *freeHeap) Less(i, j int) bool {
	return (*h)[i].size < (*h)[j].size
}

func (h *freeHeap) Swap(i, j int) {
	(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
	(*h)[i].heapIndex = i
	(*h)[j].heapIndex = j
}

func (h *freeHeap) Push(x any) {
	fb := x.(*freeBlock) //nolint:errcheck // heap.Interface contract guarantees type
	fb.heapIndex = len(*h)
	*h = append(*h, fb)
}

func (h *freeHeap) Pop() any {
	old := *h
	n := len(old)
	fb := old[n-1]
	old[n-1] = nil
	fb.heapIndex = -1
	*h = old[0 : n-1]
	return fb
}

// freeList tracks every free block three ways:
//   - heap: size-ordered priority structure used for selection
//   - byOff: O(1) lookup by header offset (successor of a released block)
//   - byAddr: address-ordered B-tree (predecessor of a released block)
type freeList struct {
	heap     freeHeap
	capacity int // 0 = unbounded
	byOff    map[int]*freeBlock
	byAddr   *btree.BTreeG[*freeBlock]
	bytes    int

	pushes  int
	removes int

	scratch []int // DFS stack reused by bestFit
}

func newFreeList(capacity int) *freeList {
	return &freeList{
		capacity: capacity,
		byOff:    make(map[int]*freeBlock, 64),
		byAddr: btree.NewG[*freeBlock](btreeDegree, func(a, b *freeBlock) bool {
			return a.off < b.off
		}),
	}
}

// Len returns the number of tracked free blocks.
func (l *freeList) Len() int { return len(l.heap) }

func (l *freeList) full() bool {
	return l.capacity > 0 && len(l.heap) >= l.capacity
}

// insert starts tracking the free block [off, off+size).
func (l *freeList) insert(off, size int) (*freeBlock, error) {
	if l.full() {
		return nil, ErrCapacityExceeded
	}
	fb := &freeBlock{off: off, size: size}
	heap.Push(&l.heap, fb)
	l.byOff[off] = fb
	l.byAddr.ReplaceOrInsert(fb)
	l.bytes += size
	l.pushes++
	return fb, nil
}

// remove stops tracking fb.
func (l *freeList) remove(fb *freeBlock) {
	heap.Remove(&l.heap, fb.heapIndex)
	delete(l.byOff, fb.off)
	l.byAddr.Delete(fb)
	l.bytes -= fb.size
	l.removes++
}

// grow extends fb by n bytes at its end and restores heap order.
// The start offset is unchanged, so the address index stays valid.
func (l *freeList) grow(fb *freeBlock, n int) {
	fb.size += n
	l.bytes += n
	heap.Fix(&l.heap, fb.heapIndex)
}

// at returns the free block whose header is at off.
func (l *freeList) at(off int) *freeBlock {
	return l.byOff[off]
}

// endingAt returns the free block that ends exactly at off, if any.
func (l *freeList) endingAt(off int) *freeBlock {
	var pred *freeBlock
	l.byAddr.DescendLessOrEqual(&freeBlock{off: off - 1}, func(fb *freeBlock) bool {
		pred = fb
		return false
	})
	if pred != nil && pred.end() == off {
		return pred
	}
	return nil
}

// extract removes and returns a block of at least need bytes chosen by
// policy, or nil when none is large enough.
func (l *freeList) extract(need int, policy FitPolicy) *freeBlock {
	var i int
	switch policy {
	case FirstFit:
		i = l.firstFit(need)
	default:
		i = l.bestFit(need)
	}
	if i < 0 {
		return nil
	}
	fb := l.heap[i]
	l.remove(fb)
	return fb
}

// firstFit returns the index of the first heap slot holding at least need
// bytes. The heap orders by size but says nothing about "large enough", so
// this is a plain O(n) scan.
func (l *freeList) firstFit(need int) int {
	for i, fb := range l.heap {
		if fb.size >= need {
			return i
		}
	}
	return -1
}

// bestFit returns the index of the smallest block holding at least need
// bytes, lowest offset first among equals. Every descendant of a node is at
// least as large, so the walk stops descending once a node fits, except into
// children of equal size that may sit at a lower offset.
func (l *freeList) bestFit(need int) int {
	if len(l.heap) == 0 {
		return -1
	}
	best := -1
	stack := append(l.scratch[:0], 0)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fb := l.heap[i]
		if best >= 0 && fb.size > l.heap[best].size {
			continue
		}
		fits := fb.size >= need
		if fits && (best < 0 || fb.size < l.heap[best].size || fb.off < l.heap[best].off) {
			best = i
		}
		for _, c := range [2]int{2*i + 1, 2*i + 2} {
			if c >= len(l.heap) {
				continue
			}
			if !fits || l.heap[c].size == fb.size {
				stack = append(stack, c)
			}
		}
	}
	l.scratch = stack
	return best
}

// mergeAdjacentScan merges touching free blocks by rescanning all pairs from
// the start after every merge, until a full pass finds none. The lower block
// absorbs the higher one. onMerge is called with both blocks after the merge.
func (l *freeList) mergeAdjacentScan(onMerge func(lo, hi *freeBlock)) int {
	merges := 0
	for merged := true; merged; {
		merged = false
	scan:
		for i := 0; i < len(l.heap); i++ {
			for j := 0; j < len(l.heap); j++ {
				if i == j {
					continue
				}
				lo, hi := l.heap[i], l.heap[j]
				if lo.end() != hi.off {
					continue
				}
				l.remove(hi)
				l.grow(lo, hi.size)
				onMerge(lo, hi)
				merges++
				merged = true
				break scan
			}
		}
	}
	return merges
}

// largest returns the size of the largest free block.
func (l *freeList) largest() int {
	m := 0
	for _, fb := range l.heap {
		m = max(m, fb.size)
	}
	return m
}

// ascend visits free blocks in address order.
func (l *freeList) ascend(fn func(fb *freeBlock) bool) {
	l.byAddr.Ascend(func(fb *freeBlock) bool { return fn(fb) })
}

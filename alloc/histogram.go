package alloc

import "math"

// HistogramConfig defines the bucket layout of the free-block size histogram.
// Small sizes get linear buckets; above SmallMax buckets grow geometrically.
type HistogramConfig struct {
	// Name for this configuration (for reports)
	Name string

	// Small bucket settings (linear increments)
	SmallMin       int // Smallest bucketed size (typically the minimum block size)
	SmallMax       int // Max for linear increments
	SmallIncrement int // Width of each small bucket

	// Large bucket settings (geometric growth)
	LargeMax     int     // Sizes above this share the final bucket
	GrowthFactor float64 // Exponential growth factor (1.5, 2.0, etc.)
}

// DefaultHistogram: 16-256 step 16, then doubling up to 1 MiB.
var DefaultHistogram = HistogramConfig{
	Name:           "Default",
	SmallMin:       16,
	SmallMax:       256,
	SmallIncrement: 16,
	LargeMax:       1 << 20,
	GrowthFactor:   2.0,
}

// sizeClassTable holds the computed bucket boundaries.
type sizeClassTable struct {
	config     HistogramConfig
	boundaries []int // Inclusive upper bound of each bucket
	numClasses int
}

// newSizeClassTable computes bucket boundaries from config.
func newSizeClassTable(config HistogramConfig) *sizeClassTable {
	table := &sizeClassTable{
		config:     config,
		boundaries: make([]int, 0, 32),
	}

	// Phase 1: linear increments
	for size := config.SmallMin; size < config.SmallMax; size += config.SmallIncrement {
		table.boundaries = append(table.boundaries, size+config.SmallIncrement-1)
	}

	// Phase 2: geometric growth
	if config.SmallMax < config.LargeMax {
		size := config.SmallMax
		for size < config.LargeMax {
			next := int(math.Ceil(float64(size) * config.GrowthFactor))
			if next <= size {
				next = size + 1 // Ensure progress
			}
			table.boundaries = append(table.boundaries, next-1)
			size = next
		}
	}

	table.numClasses = len(table.boundaries)
	return table
}

// getSizeClass returns the bucket index for size, or numClasses for sizes
// beyond the last boundary.
func (t *sizeClassTable) getSizeClass(size int) int {
	lo, hi := 0, t.numClasses-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= t.boundaries[mid] {
			if mid == 0 || size > t.boundaries[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return t.numClasses
}

// HistogramBucket counts free blocks whose size lies in [Lo, Hi].
// Hi is -1 for the open-ended last bucket.
type HistogramBucket struct {
	Lo, Hi int
	Count  int
	Bytes  int
}

// FreeHistogram buckets the current free blocks by size. Empty buckets are
// omitted. A nil config uses DefaultHistogram.
func (a *Allocator) FreeHistogram(config *HistogramConfig) []HistogramBucket {
	if config == nil {
		config = &DefaultHistogram
	}
	if a.free == nil {
		return nil
	}
	table := newSizeClassTable(*config)
	buckets := make([]HistogramBucket, table.numClasses+1)
	for i := range buckets {
		if i == 0 {
			buckets[i].Lo = config.SmallMin
		} else {
			buckets[i].Lo = table.boundaries[i-1] + 1
		}
		if i < table.numClasses {
			buckets[i].Hi = table.boundaries[i]
		} else {
			buckets[i].Hi = -1
		}
	}
	for _, fb := range a.free.heap {
		b := &buckets[table.getSizeClass(fb.size)]
		b.Count++
		b.Bytes += fb.size
	}

	out := buckets[:0]
	for _, b := range buckets {
		if b.Count > 0 {
			out = append(out, b)
		}
	}
	return out
}

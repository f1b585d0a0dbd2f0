package alloc

import (
	"log/slog"
	"os"

	"github.com/joshuapare/xmalloc/internal/logger"
	"github.com/joshuapare/xmalloc/region"
)

const (
	// DefaultRegionSize is the bootstrap region size (1 MiB).
	DefaultRegionSize = 1 << 20

	// CompatFreeListCapacity is the fixed slot count of ConfigCompat.
	CompatFreeListCapacity = 1024
)

// Config controls allocator behaviour.
type Config struct {
	// RegionSize is the bootstrap size, rounded up to 1 MiB. 0 means DefaultRegionSize.
	RegionSize int

	// Policy selects the free block for each allocation.
	Policy FitPolicy

	// Coalesce selects how releases merge adjacent free blocks.
	Coalesce CoalesceMode

	// FreeListCapacity limits the number of tracked free blocks. 0 means unbounded.
	FreeListCapacity int

	// SplitOnShrink returns the tail of a shrunk allocation to the free list.
	// When false the tail stays attached to the allocation.
	SplitOnShrink bool

	// Source provides the region memory. nil means region.DefaultSource.
	Source region.Source

	// Logger receives diagnostics. nil means logger.L.
	Logger *slog.Logger

	// OnFatal is called after the region cannot be acquired. nil exits the process.
	OnFatal func(error)
}

// Predefined configurations.
var (
	// DefaultConfig: best-fit selection, indexed coalescing, growable free list.
	DefaultConfig = Config{
		RegionSize: DefaultRegionSize,
		Policy:     BestFit,
		Coalesce:   CoalesceIndexed,
	}

	// ConfigCompat reproduces the classic engine: first-fit scan, all-pairs
	// coalescing and a 1024-slot free list.
	ConfigCompat = Config{
		RegionSize:       DefaultRegionSize,
		Policy:           FirstFit,
		Coalesce:         CoalesceScan,
		FreeListCapacity: CompatFreeListCapacity,
	}
)

func (c Config) withDefaults() Config {
	if c.RegionSize <= 0 {
		c.RegionSize = DefaultRegionSize
	}
	if c.FreeListCapacity < 0 {
		c.FreeListCapacity = 0
	}
	if c.Source == nil {
		c.Source = region.DefaultSource
	}
	if c.Logger == nil {
		c.Logger = logger.L
	}
	if c.OnFatal == nil {
		c.OnFatal = exitOnFatal
	}
	return c
}

func exitOnFatal(error) {
	os.Exit(1)
}

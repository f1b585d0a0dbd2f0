// Package stress runs the randomized memtest workload: a fixed number of
// allocations, mostly tiny and occasionally large, some of them resized,
// each holding a prefix of a test string that must survive until it is freed.
package stress

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/joshuapare/xmalloc/internal/logger"
)

// DefaultText is written into every allocation.
const DefaultText = "Now is the time for all good people to come to the aid of their country."

// Defaults
const (
	DefaultIterations    = 10
	DefaultLargeChance   = 10 // 1 in N allocations is large
	DefaultReallocChance = 5  // 1 in N allocations is resized
	MinSmall, MaxSmall   = 1, 30
	MinLarge, MaxLarge   = 1024, 1024 * 1024
	MaxGrow              = 100

	// DefaultRegionSize holds DefaultIterations large allocations at once.
	DefaultRegionSize = 16 << 20
)

var (
	// ErrMallocFailed wraps a failed allocation.
	ErrMallocFailed = errors.New("stress: malloc failed")
	// ErrReallocFailed wraps a failed resize.
	ErrReallocFailed = errors.New("stress: realloc failed")
	// ErrCorrupted reports an allocation whose contents changed.
	ErrCorrupted = errors.New("stress: contents corrupted")
)

// Config controls a run. Zero fields take the defaults above.
type Config struct {
	Iterations    int
	Seed          int64
	Text          string
	LargeChance   int
	ReallocChance int
	Backend       Backend      // required
	Logger        *slog.Logger // nil means logger.L

	// AfterAlloc runs once every slot is allocated, before anything is freed.
	AfterAlloc func(*Report)
}

// Record describes one slot after the allocation phase.
type Record struct {
	Index    int
	Size     int // requested at allocation
	NewSize  int // after realloc, 0 if not resized
	Copied   int // bytes of Text stored (excluding the NUL)
	Large    bool
	Moved    bool
	Released bool
}

// Report summarises a run.
type Report struct {
	Backend    string
	Iterations int
	Seed       int64
	Allocs     int
	Reallocs   int
	Moves      int
	Frees      int
	Large      int
	Bytes      int64 // total requested, after resizing
	Records    []Record
}

type slot struct {
	h    Handle
	want []byte
}

// Run executes the workload. It stops at the first failure and returns the
// partial report along with the error.
func Run(cfg Config) (*Report, error) {
	if cfg.Backend == nil {
		return nil, errors.New("stress: no backend")
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.Text == "" {
		cfg.Text = DefaultText
	}
	if cfg.LargeChance <= 0 {
		cfg.LargeChance = DefaultLargeChance
	}
	if cfg.ReallocChance <= 0 {
		cfg.ReallocChance = DefaultReallocChance
	}
	log := cfg.Logger
	if log == nil {
		log = logger.L
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	between := func(lo, hi int) int { return lo + rng.Intn(hi-lo+1) }

	rep := &Report{
		Backend:    cfg.Backend.Name(),
		Iterations: cfg.Iterations,
		Seed:       cfg.Seed,
		Records:    make([]Record, 0, cfg.Iterations),
	}
	slots := make([]slot, 0, cfg.Iterations)

	for ix := 0; ix < cfg.Iterations; ix++ {
		rec := Record{Index: ix}
		size := between(MinSmall, MaxSmall)
		if between(1, cfg.LargeChance) == 1 {
			size = between(MinLarge, MaxLarge)
			rec.Large = true
			rep.Large++
		}
		rec.Size = size
		log.Debug("stress alloc", "ix", ix, "size", size)

		h, err := cfg.Backend.Malloc(size)
		if err != nil {
			return rep, fmt.Errorf("%w: [%d] %d bytes: %w", ErrMallocFailed, ix, size, err)
		}
		rep.Allocs++

		b, err := cfg.Backend.Bytes(h)
		if err != nil {
			return rep, fmt.Errorf("[%d] %w", ix, err)
		}
		n := min(len(cfg.Text), size-1)
		copy(b, cfg.Text[:n])
		b[n] = 0
		rec.Copied = n
		want := append([]byte(nil), b[:n+1]...)
		log.Debug("stress write", "ix", ix, "handle", fmt.Sprintf("%#x", uint64(h)), "copied", n)

		finalSize := size
		if between(1, cfg.ReallocChance) == 1 {
			newSize := size + between(1, MaxGrow)
			if between(1, 2) != 1 && size >= 2 {
				newSize = size - between(1, size/2)
			}
			log.Debug("stress realloc", "ix", ix, "from", size, "to", newSize)

			nh, err := cfg.Backend.Realloc(h, newSize)
			if err != nil {
				return rep, fmt.Errorf("%w: [%d] %d -> %d bytes: %w", ErrReallocFailed, ix, size, newSize, err)
			}
			rep.Reallocs++
			if nh != h {
				rep.Moves++
				rec.Moved = true
			}
			h = nh
			rec.NewSize = newSize
			finalSize = newSize
			// A shrink may cut the string; only the surviving prefix is promised.
			want = want[:min(len(want), newSize)]
		}
		rep.Bytes += int64(finalSize)

		slots = append(slots, slot{h: h, want: want})
		rep.Records = append(rep.Records, rec)
	}

	if cfg.AfterAlloc != nil {
		cfg.AfterAlloc(rep)
	}

	for ix, s := range slots {
		b, err := cfg.Backend.Bytes(s.h)
		if err != nil {
			return rep, fmt.Errorf("[%d] %w", ix, err)
		}
		if len(b) < len(s.want) || string(b[:len(s.want)]) != string(s.want) {
			return rep, fmt.Errorf("%w: [%d] handle %#x", ErrCorrupted, ix, uint64(s.h))
		}
		log.Debug("stress free", "ix", ix, "handle", fmt.Sprintf("%#x", uint64(s.h)))
		if err := cfg.Backend.Free(s.h); err != nil {
			return rep, fmt.Errorf("[%d] free: %w", ix, err)
		}
		rep.Frees++
		rep.Records[ix].Released = true
	}
	return rep, nil
}

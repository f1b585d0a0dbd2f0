package stress

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/xmalloc/alloc"
	"github.com/joshuapare/xmalloc/internal/logger"
	"github.com/joshuapare/xmalloc/region"
)

func newXmalloc(t *testing.T, cfg alloc.Config) *XmallocBackend {
	t.Helper()
	if cfg.RegionSize == 0 {
		cfg.RegionSize = DefaultRegionSize
	}
	cfg.Source = region.SliceSource{}
	cfg.Logger = logger.Discard()
	b := NewXmallocBackend(&cfg)
	t.Cleanup(func() { _ = b.A.Reset() })
	return b
}

func TestRunXmalloc(t *testing.T) {
	for _, cfg := range []alloc.Config{alloc.DefaultConfig, alloc.ConfigCompat, {SplitOnShrink: true}} {
		t.Run(cfg.Policy.String()+"/"+cfg.Coalesce.String(), func(t *testing.T) {
			for seed := int64(0); seed < 25; seed++ {
				b := newXmalloc(t, cfg)
				rep, err := Run(Config{Seed: seed, Backend: b, Logger: logger.Discard()})
				require.NoError(t, err, "seed %d", seed)

				assert.Equal(t, "xmalloc", rep.Backend)
				assert.Equal(t, DefaultIterations, rep.Allocs)
				assert.Equal(t, DefaultIterations, rep.Frees)
				require.NoError(t, b.A.Check())
				assert.Zero(t, b.A.Stats().LiveBlocks)
			}
		})
	}
}

func TestRunSystem(t *testing.T) {
	b := NewSystemBackend()
	rep, err := Run(Config{Iterations: 200, Seed: 7, Backend: b, Logger: logger.Discard()})
	require.NoError(t, err)
	assert.Equal(t, "system", rep.Backend)
	assert.Equal(t, 200, rep.Frees)
	assert.Empty(t, b.slabs)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := Config{Iterations: 50, Seed: 99, Logger: logger.Discard()}

	cfg.Backend = newXmalloc(t, alloc.DefaultConfig)
	a, err := Run(cfg)
	require.NoError(t, err)

	cfg.Backend = NewSystemBackend()
	b, err := Run(cfg)
	require.NoError(t, err)

	require.Len(t, b.Records, len(a.Records))
	for i := range a.Records {
		ra, rb := a.Records[i], b.Records[i]
		ra.Moved, rb.Moved = false, false
		assert.Equal(t, ra, rb, "record %d", i)
	}
	assert.Equal(t, a.Bytes, b.Bytes)
	assert.Equal(t, a.Reallocs, b.Reallocs)
}

func TestRunCustomText(t *testing.T) {
	b := NewSystemBackend()
	rep, err := Run(Config{Iterations: 30, Text: "xy", Backend: b, Logger: logger.Discard()})
	require.NoError(t, err)
	for _, r := range rep.Records {
		assert.LessOrEqual(t, r.Copied, 2)
		assert.Less(t, r.Copied, r.Size)
	}
}

func TestRunAfterAllocSeesLiveHeap(t *testing.T) {
	b := newXmalloc(t, alloc.DefaultConfig)
	live := -1
	_, err := Run(Config{
		Iterations: 12,
		Backend:    b,
		Logger:     logger.Discard(),
		AfterAlloc: func(rep *Report) {
			live = b.A.Stats().LiveBlocks
			assert.Zero(t, rep.Frees)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, live)
}

func TestRunNoBackend(t *testing.T) {
	_, err := Run(Config{})
	require.Error(t, err)
}

type failingBackend struct {
	*SystemBackend
	failMalloc  bool
	failRealloc bool
	scribble    bool
}

var errInjected = errors.New("injected")

func (b *failingBackend) Malloc(size int) (Handle, error) {
	if b.failMalloc {
		return 0, errInjected
	}
	return b.SystemBackend.Malloc(size)
}

func (b *failingBackend) Realloc(h Handle, size int) (Handle, error) {
	if b.failRealloc {
		return 0, errInjected
	}
	return b.SystemBackend.Realloc(h, size)
}

func (b *failingBackend) Bytes(h Handle) ([]byte, error) {
	s, err := b.SystemBackend.Bytes(h)
	if err == nil && b.scribble && len(s) > 0 && s[0] != 0 {
		s[0] ^= 0xFF
	}
	return s, err
}

func TestRunMallocFailure(t *testing.T) {
	_, err := Run(Config{Backend: &failingBackend{SystemBackend: NewSystemBackend(), failMalloc: true}, Logger: logger.Discard()})
	require.ErrorIs(t, err, ErrMallocFailed)
	require.ErrorIs(t, err, errInjected)
}

func TestRunReallocFailure(t *testing.T) {
	rep, err := Run(Config{
		Iterations:    5,
		ReallocChance: 1,
		Backend:       &failingBackend{SystemBackend: NewSystemBackend(), failRealloc: true},
		Logger:        logger.Discard(),
	})
	require.ErrorIs(t, err, ErrReallocFailed)
	assert.Equal(t, 1, rep.Allocs)
}

func TestRunDetectsCorruption(t *testing.T) {
	_, err := Run(Config{
		Iterations: 5,
		Text:       "abc",
		Backend:    &failingBackend{SystemBackend: NewSystemBackend(), scribble: true},
		Logger:     logger.Discard(),
	})
	require.ErrorIs(t, err, ErrCorrupted)
}

func TestRunOutOfMemory(t *testing.T) {
	b := newXmalloc(t, alloc.Config{RegionSize: alloc.DefaultRegionSize})
	_, err := Run(Config{
		Iterations:    20,
		LargeChance:   1,
		ReallocChance: 1 << 30,
		Backend:       b,
		Logger:        logger.Discard(),
	})
	require.ErrorIs(t, err, ErrMallocFailed)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
}

func TestSystemBackendEdges(t *testing.T) {
	b := NewSystemBackend()

	h, err := b.Malloc(0)
	require.NoError(t, err)
	assert.Zero(t, h)
	require.NoError(t, b.Free(0))

	h, err = b.Realloc(0, 8)
	require.NoError(t, err)
	nh, err := b.Realloc(h, 0)
	require.NoError(t, err)
	assert.Zero(t, nh)

	require.ErrorIs(t, b.Free(h), alloc.ErrInvalidPointer)
	_, err = b.Malloc(-1)
	require.ErrorIs(t, err, alloc.ErrInvalidSize)
}

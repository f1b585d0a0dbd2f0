package alloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/xmalloc/internal/format"
	"github.com/joshuapare/xmalloc/internal/logger"
	"github.com/joshuapare/xmalloc/region"
)

// newTestAllocator builds an allocator backed by Go-heap memory with
// diagnostics discarded. A failed bootstrap fails the test instead of exiting.
func newTestAllocator(t testing.TB, cfg Config) *Allocator {
	t.Helper()
	if cfg.Source == nil {
		cfg.Source = region.SliceSource{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.OnFatal == nil {
		cfg.OnFatal = func(err error) { t.Errorf("unexpected fatal: %v", err) }
	}
	a := New(&cfg)
	t.Cleanup(func() { _ = a.Reset() })
	return a
}

// variant is one combination of selection policy, coalescing and capacity.
type variant struct {
	name string
	cfg  Config
}

func allVariants() []variant {
	var out []variant
	for _, p := range []FitPolicy{BestFit, FirstFit} {
		for _, m := range []CoalesceMode{CoalesceIndexed, CoalesceScan} {
			for _, c := range []int{0, CompatFreeListCapacity} {
				out = append(out, variant{
					name: fmt.Sprintf("%s/%s/cap=%d", p, m, c),
					cfg:  Config{Policy: p, Coalesce: m, FreeListCapacity: c},
				})
			}
		}
	}
	return out
}

func assertInvariants(t testing.TB, a *Allocator) {
	t.Helper()
	require.NoError(t, a.Check())
}

// blockOff converts a handle to its header offset.
func blockOff(p Ptr) int { return int(p) - format.HeaderSize }

func mustAlloc(t testing.TB, a *Allocator, size int) Ptr {
	t.Helper()
	p, err := a.Alloc(size)
	require.NoError(t, err, "Alloc(%d)", size)
	require.NotEqual(t, Null, p, "Alloc(%d)", size)
	return p
}

func mustBytes(t testing.TB, a *Allocator, p Ptr) []byte {
	t.Helper()
	b, err := a.Bytes(p)
	require.NoError(t, err)
	return b
}

func fill(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}

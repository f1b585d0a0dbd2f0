package region

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireSources(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  Source
	}{
		{"mmap", MmapSource{}},
		{"slice", SliceSource{}},
		{"default", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Acquire(tc.src, 1<<20)
			require.NoError(t, err)
			defer r.Release()

			assert.Equal(t, 1<<20, r.Size())
			assert.NotZero(t, r.Base())
			assert.Len(t, r.Bytes(), 1<<20)
			assert.Equal(t, r.Size(), cap(r.Bytes()))
			assert.Equal(t, byte(0), r.Bytes()[r.Size()-1])
		})
	}
}

func TestContains(t *testing.T) {
	r, err := Acquire(SliceSource{}, 64)
	require.NoError(t, err)

	assert.True(t, r.Contains(0))
	assert.True(t, r.Contains(63))
	assert.False(t, r.Contains(64))
	assert.False(t, r.Contains(-1))

	var nilRegion *Region
	assert.False(t, nilRegion.Contains(0), "nil region contains nothing")
}

func TestAcquireFailure(t *testing.T) {
	boom := errors.New("no memory")
	src := SourceFunc(func(int) ([]byte, func() error, error) { return nil, nil, boom })

	_, err := Acquire(src, 4096)
	require.ErrorIs(t, err, ErrAcquire)
	require.ErrorIs(t, err, boom)

	_, err = Acquire(SliceSource{}, 0)
	require.ErrorIs(t, err, ErrAcquire)
}

func TestAcquireShortSource(t *testing.T) {
	released := false
	src := SourceFunc(func(int) ([]byte, func() error, error) {
		return make([]byte, 10), func() error { released = true; return nil }, nil
	})
	_, err := Acquire(src, 4096)
	require.ErrorIs(t, err, ErrAcquire)
	assert.True(t, released, "short buffer is handed back")
}

func TestReleaseIsIdempotent(t *testing.T) {
	calls := 0
	src := SourceFunc(func(size int) ([]byte, func() error, error) {
		return make([]byte, size), func() error { calls++; return nil }, nil
	})
	r, err := Acquire(src, 128)
	require.NoError(t, err)

	require.NoError(t, r.Release())
	require.NoError(t, r.Release())
	assert.Equal(t, 1, calls)
	assert.Zero(t, r.Size())
	assert.Contains(t, r.String(), "size=0")
}

package stress

import (
	"fmt"

	"github.com/joshuapare/xmalloc/alloc"
)

// Handle identifies one allocation made through a Backend.
type Handle uint64

// Backend is the allocator under test.
type Backend interface {
	Name() string
	Malloc(size int) (Handle, error)
	Realloc(h Handle, size int) (Handle, error)
	Free(h Handle) error
	Bytes(h Handle) ([]byte, error)
}

// XmallocBackend drives an alloc.Allocator.
type XmallocBackend struct {
	A *alloc.Allocator
}

// NewXmallocBackend wraps a fresh allocator built from cfg.
func NewXmallocBackend(cfg *alloc.Config) *XmallocBackend {
	return &XmallocBackend{A: alloc.New(cfg)}
}

func (b *XmallocBackend) Name() string { return "xmalloc" }

func (b *XmallocBackend) Malloc(size int) (Handle, error) {
	p, err := b.A.Alloc(size)
	return Handle(p), err
}

func (b *XmallocBackend) Realloc(h Handle, size int) (Handle, error) {
	p, err := b.A.Realloc(alloc.Ptr(h), size)
	return Handle(p), err
}

func (b *XmallocBackend) Free(h Handle) error { return b.A.Free(alloc.Ptr(h)) }

func (b *XmallocBackend) Bytes(h Handle) ([]byte, error) { return b.A.Bytes(alloc.Ptr(h)) }

// SystemBackend uses the Go runtime allocator as the reference.
type SystemBackend struct {
	next  Handle
	slabs map[Handle][]byte
}

// NewSystemBackend returns an empty reference backend.
func NewSystemBackend() *SystemBackend {
	return &SystemBackend{slabs: make(map[Handle][]byte)}
}

func (b *SystemBackend) Name() string { return "system" }

func (b *SystemBackend) Malloc(size int) (Handle, error) {
	if size < 0 {
		return 0, fmt.Errorf("%w: %d", alloc.ErrInvalidSize, size)
	}
	if size == 0 {
		return 0, nil
	}
	b.next++
	b.slabs[b.next] = make([]byte, size)
	return b.next, nil
}

func (b *SystemBackend) Realloc(h Handle, size int) (Handle, error) {
	if h == 0 {
		return b.Malloc(size)
	}
	old, ok := b.slabs[h]
	if !ok {
		return 0, fmt.Errorf("%w: %#x", alloc.ErrInvalidPointer, uint64(h))
	}
	if size == 0 {
		return 0, b.Free(h)
	}
	nh, err := b.Malloc(size)
	if err != nil {
		return 0, err
	}
	copy(b.slabs[nh], old)
	delete(b.slabs, h)
	return nh, nil
}

func (b *SystemBackend) Free(h Handle) error {
	if h == 0 {
		return nil
	}
	if _, ok := b.slabs[h]; !ok {
		return fmt.Errorf("%w: %#x", alloc.ErrInvalidPointer, uint64(h))
	}
	delete(b.slabs, h)
	return nil
}

func (b *SystemBackend) Bytes(h Handle) ([]byte, error) {
	s, ok := b.slabs[h]
	if !ok {
		return nil, fmt.Errorf("%w: %#x", alloc.ErrInvalidPointer, uint64(h))
	}
	return s, nil
}

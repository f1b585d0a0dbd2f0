// Package checks holds the allocator's named self-test table. Each check runs
// against a caller-supplied allocator, in order, sharing its state the way a
// process-wide heap would be shared.
package checks

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/xmalloc/alloc"
	"github.com/joshuapare/xmalloc/internal/format"
)

// ErrNoSuchCheck is returned by RunOne for an index outside the table.
var ErrNoSuchCheck = errors.New("checks: no such check")

// Check is one named self-test.
type Check struct {
	Name string
	Fn   func(a *alloc.Allocator) error
}

// All lists the checks in execution order. Indexes are stable: the CLI
// selects checks by position.
var All = []Check{
	{"test_simple_alloc_free", simpleAllocFree},
	{"test_multiple_alloc_free", multipleAllocFree},
	{"test_realloc_larger", reallocLarger},
	{"test_realloc_smaller", reallocSmaller},
	{"test_alloc_zero", allocZero},
	{"test_free_null", freeNull},
	{"test_coalesce_adjacent", coalesceAdjacent},
	{"test_free_invalid_pointer", freeInvalidPointer},
}

// Result is the outcome of one check.
type Result struct {
	Index int
	Name  string
	Err   error // nil on success
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// Run executes every check and writes progress to w. The returned slice has
// one entry per check.
func Run(w io.Writer, a *alloc.Allocator) []Result {
	fmt.Fprintln(w, "Executing all tests...")

	results := make([]Result, 0, len(All))
	passed := 0
	for i := range All {
		fmt.Fprintf(w, "Test %d: ", i)
		r := run(w, a, i)
		if r.Passed() {
			fmt.Fprintln(w, "PASSED.")
			passed++
		} else {
			fmt.Fprintln(w, "FAILED.")
		}
		results = append(results, r)
	}

	fmt.Fprintf(w, "Passed %d/%d tests.\n", passed, len(All))
	return results
}

// RunOne executes the check at index i.
func RunOne(w io.Writer, a *alloc.Allocator, i int) (Result, error) {
	if i < 0 || i >= len(All) {
		return Result{}, fmt.Errorf("%w: %d (available: 0 to %d)", ErrNoSuchCheck, i, len(All)-1)
	}
	fmt.Fprintf(w, "Executing Test %d:\n", i)
	r := run(w, a, i)
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "Test %d %s.\n", i, status)
	return r, nil
}

// AllPassed reports whether every result succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

func run(w io.Writer, a *alloc.Allocator, i int) Result {
	c := All[i]
	fmt.Fprintf(w, "Running %s...\n", c.Name)

	err := c.Fn(a)
	if err == nil {
		// A check can pass its own assertions and still leave the heap broken.
		if cerr := a.Check(); cerr != nil {
			err = fmt.Errorf("heap inconsistent afterwards: %w", cerr)
		}
	}

	if err != nil {
		fmt.Fprintf(w, "FAIL: %v.\n", err)
	} else {
		fmt.Fprintf(w, "PASS: %s.\n", c.Name)
	}
	return Result{Index: i, Name: c.Name, Err: err}
}

func simpleAllocFree(a *alloc.Allocator) error {
	const size = 100
	p, b, err := allocBytes(a, size)
	if err != nil {
		return err
	}
	defer a.Free(p) //nolint:errcheck // best effort cleanup

	if i := firstNot(b[:size], 0); i >= 0 {
		return fmt.Errorf("memory not zeroed at byte %d", i)
	}
	return nil
}

func multipleAllocFree(a *alloc.Allocator) error {
	const (
		numAllocs = 10
		size      = 50
	)
	ptrs := make([]alloc.Ptr, 0, numAllocs)
	defer func() {
		for _, p := range ptrs {
			_ = a.Free(p)
		}
	}()

	for i := 0; i < numAllocs; i++ {
		p, b, err := allocBytes(a, size)
		if err != nil {
			return fmt.Errorf("allocation %d failed: %w", i, err)
		}
		ptrs = append(ptrs, p)
		fillByte(b[:size], 'A'+byte(i))
	}

	for i, p := range ptrs {
		b, err := a.Bytes(p)
		if err != nil {
			return err
		}
		if j := firstNot(b[:size], 'A'+byte(i)); j >= 0 {
			return fmt.Errorf("memory corruption in block %d at byte %d", i, j)
		}
	}

	for _, p := range ptrs {
		if err := a.Free(p); err != nil {
			return err
		}
	}
	ptrs = ptrs[:0]
	return nil
}

func reallocLarger(a *alloc.Allocator) error {
	const initialSize, newSize = 100, 200

	p, b, err := allocBytes(a, initialSize)
	if err != nil {
		return fmt.Errorf("initial allocation failed: %w", err)
	}
	fillByte(b[:initialSize], 'B')

	np, err := a.Realloc(p, newSize)
	if err != nil {
		_ = a.Free(p)
		return fmt.Errorf("reallocation to larger size failed: %w", err)
	}
	defer a.Free(np) //nolint:errcheck // best effort cleanup

	nb, err := a.Bytes(np)
	if err != nil {
		return err
	}
	if i := firstNot(nb[:initialSize], 'B'); i >= 0 {
		return fmt.Errorf("data corruption after realloc at byte %d", i)
	}
	if i := firstNot(nb[initialSize:newSize], 0); i >= 0 {
		return fmt.Errorf("new memory not zeroed at byte %d", initialSize+i)
	}
	return nil
}

func reallocSmaller(a *alloc.Allocator) error {
	const initialSize, newSize = 200, 100

	p, b, err := allocBytes(a, initialSize)
	if err != nil {
		return fmt.Errorf("initial allocation failed: %w", err)
	}
	fillByte(b[:initialSize], 'C')

	np, err := a.Realloc(p, newSize)
	if err != nil {
		_ = a.Free(p)
		return fmt.Errorf("reallocation to smaller size failed: %w", err)
	}
	defer a.Free(np) //nolint:errcheck // best effort cleanup

	nb, err := a.Bytes(np)
	if err != nil {
		return err
	}
	if i := firstNot(nb[:newSize], 'C'); i >= 0 {
		return fmt.Errorf("data corruption after realloc at byte %d", i)
	}
	return nil
}

func allocZero(a *alloc.Allocator) error {
	p, err := a.Alloc(0)
	if err != nil {
		return err
	}
	if p != alloc.Null {
		_ = a.Free(p)
		return errors.New("allocation with size 0 should return Null")
	}
	return nil
}

func freeNull(a *alloc.Allocator) error {
	return a.Free(alloc.Null)
}

func coalesceAdjacent(a *alloc.Allocator) error {
	const size = 50

	p, err := a.Alloc(size)
	if err != nil {
		return err
	}
	q, err := a.Alloc(size)
	if err != nil {
		_ = a.Free(p)
		return err
	}

	pSize, _ := a.UsableSize(p)
	if int(q) != int(p)+pSize+format.HeaderSize {
		_ = a.Free(p)
		_ = a.Free(q)
		return fmt.Errorf("blocks %#x and %#x are not adjacent", uint64(p), uint64(q))
	}
	qSize, _ := a.UsableSize(q)
	lo, hi := int(p)-format.HeaderSize, int(q)+qSize

	if err := a.Free(q); err != nil {
		return err
	}
	if err := a.Free(p); err != nil {
		return err
	}

	merged := false
	for _, fb := range a.FreeBlocks() {
		if fb.Off <= lo && fb.End() >= hi {
			merged = true
			break
		}
	}
	if !merged {
		return fmt.Errorf("no single free block covers [%d, %d)", lo, hi)
	}

	regionSize := a.Region().Size()
	r, err := a.Alloc(hi - lo - format.HeaderSize)
	if err != nil {
		return fmt.Errorf("merged block unusable: %w", err)
	}
	defer a.Free(r) //nolint:errcheck // best effort cleanup
	if a.Region().Size() != regionSize {
		return errors.New("region grew")
	}
	return nil
}

func freeInvalidPointer(a *alloc.Allocator) error {
	// Make sure the region exists so there is something to compare.
	p, err := a.Alloc(16)
	if err != nil {
		return err
	}
	defer a.Free(p) //nolint:errcheck // best effort cleanup

	before := bytes.Clone(a.Region().Bytes())
	outside := alloc.Ptr(a.Region().Size() + 4096)

	if err := a.Free(outside); !errors.Is(err, alloc.ErrInvalidPointer) {
		return fmt.Errorf("free of pointer outside region: got %v, want %v", err, alloc.ErrInvalidPointer)
	}
	if !bytes.Equal(before, a.Region().Bytes()) {
		return errors.New("region modified by invalid free")
	}
	return nil
}

func allocBytes(a *alloc.Allocator, size int) (alloc.Ptr, []byte, error) {
	p, err := a.Alloc(size)
	if err != nil {
		return alloc.Null, nil, err
	}
	b, err := a.Bytes(p)
	if err != nil {
		return alloc.Null, nil, err
	}
	return p, b, nil
}

func fillByte(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}

func firstNot(b []byte, c byte) int {
	for i, v := range b {
		if v != c {
			return i
		}
	}
	return -1
}

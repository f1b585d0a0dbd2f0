/*
Package xmalloc is a drop-in, process-wide allocator facade.

It forwards to a single default alloc.Allocator that acquires its 1 MiB
region on the first Malloc and keeps it for the life of the process.

# Quick Start

	p, err := xmalloc.Malloc(100)
	if err != nil {
	    log.Fatal(err)
	}
	b, _ := xmalloc.Bytes(p)
	copy(b, "hello")

	p, err = xmalloc.Realloc(p, 4096) // contents preserved
	xmalloc.Free(p)

# Semantics

  - Malloc(0) returns Null and no error.
  - Free(Null) does nothing.
  - Realloc(Null, n) is Malloc(n); Realloc(p, 0) is Free(p) and returns Null.
  - Freeing a pointer that is not a live allocation is reported on stderr and
    returned as alloc.ErrInvalidPointer; the heap is left untouched.
  - Exhaustion returns alloc.ErrOutOfMemory. The region never grows.

# Configuration

Call Configure before the first allocation to choose a different policy:

	err := xmalloc.Configure(&alloc.ConfigCompat)

# Thread Safety

None. The default allocator is shared process-wide state; callers using it
from several goroutines must serialise access themselves.
*/
package xmalloc

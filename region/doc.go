// Package region manages the single contiguous memory extent that backs an
// allocator.
//
// # Overview
//
// A Region is acquired once from a Source and never grown. Offsets handed out
// by the allocator are relative to the start of the region, so the region's
// base address only matters for diagnostics.
//
// # Sources
//
//   - MmapSource: anonymous private mapping (golang.org/x/sys/unix on unix,
//     Go heap elsewhere). This is the default.
//   - SliceSource: a plain Go byte slice. Useful in tests and on platforms
//     where mapping is undesirable.
//
// A Source that fails to deliver memory makes the owning allocator unusable;
// the allocator treats that as fatal.
package region

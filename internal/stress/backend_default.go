//go:build !systemmalloc

package stress

// DefaultSystem reports whether the build selects the reference backend.
const DefaultSystem = false

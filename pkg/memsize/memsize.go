//go:build typesize

// Package memsize provides best-effort memory accounting for Map
// instances, the spec's `typesize` feature toggle, adapted from the
// teacher's metrics.go arena_bytes gauge concept (there, arena bytes
// were tracked precisely by the allocator; here, without a custom
// allocator, we estimate via unsafe.Sizeof/reflect instead).
package memsize

import (
	"reflect"
	"unsafe"
)

// EntrySize estimates the in-memory footprint of one (K, V) pair as
// stored by the map: the static sizes of K and V plus, for variable-
// length kinds (string, slice, map), a best-effort estimate of their
// backing storage via reflection over a live sample value.
func EntrySize[K comparable, V any](key K, value V) uintptr {
	return sizeOf(key) + sizeOf(value)
}

func sizeOf(v any) uintptr {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Type().Size() + uintptr(rv.Len())
	case reflect.Slice:
		if rv.Len() == 0 {
			return rv.Type().Size()
		}
		return rv.Type().Size() + uintptr(rv.Len())*rv.Type().Elem().Size()
	case reflect.Map:
		// Rough estimate only: Go does not expose a map's bucket layout.
		return rv.Type().Size() + uintptr(rv.Len())*2*unsafe.Sizeof(uintptr(0))
	default:
		return rv.Type().Size()
	}
}

// TableFootprint estimates the total bytes backing a table of the given
// slot count and per-slot size, rounded to the platform's natural
// alignment — the same calculation the teacher's arena_bytes gauge made
// for a fixed-size arena, generalized to an arbitrary slot size.
func TableFootprint(slotCount int, slotSize uintptr) uintptr {
	const align = unsafe.Sizeof(uintptr(0))
	total := uintptr(slotCount) * slotSize
	if rem := total % align; rem != 0 {
		total += align - rem
	}
	return total
}

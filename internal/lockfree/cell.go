// Package lockfree implements C6 (the lock-free bucket array) and C7 (the
// resize coordinator): the alternative hash-table core explored as a
// replacement for the sharded design, preserved per SPEC_FULL.md as a
// second public engine and as the test oracle's adversarial partner.
//
// Grounded on original_source/src/table/{mod,entry_manager,bucket_cas}.rs
// and src/pointer.rs (the tagged-pointer bucket cell and CAS state
// machine) and, for the Go-idiomatic encoding of a tagged atomic cell as
// an atomic.Pointer to an immutable struct rather than a hand-packed
// word, on other_examples' otter-v2 internal/hashmap/map.go (bucket.meta
// + atomic.Pointer[bucketPadded] chaining) — see SPEC_FULL.md §4.6 for the
// explicit note on why this encoding is the correct Go translation of the
// spec's packed-word description.
package lockfree

import "github.com/Voskan/concurrentmap/internal/entrybox"

// cellTag is the spec's 2-bit tag, widened to a byte for Go ergonomics.
type cellTag uint8

const (
	tagNull      cellTag = iota // no entry has ever occupied this cell, or iteration should treat it as absent
	tagLive                     // cell holds a live entry box
	tagTombstone                // cell once held a live entry; reads skip past it, inserts may reclaim it
	tagResize                   // one-way terminal: the table is being migrated, this cell is frozen
)

// cell is the immutable payload a bucket's atomic.Pointer swaps between.
// A nil *cell is equivalent to {tag: tagNull}; representing "empty" as an
// actual nil pointer (rather than a sentinel struct) makes the zero value
// of a freshly allocated bucket array correct with no initialization pass.
type cell[K comparable, V any] struct {
	tag         cellTag
	fingerprint uint16
	box         *entrybox.Box[K, V]
}

// newTombstoneCell and newResizeCell build the two payload-free states. Each
// call allocates a fresh cell; the tag alone carries the state.
func newTombstoneCell[K comparable, V any]() *cell[K, V] {
	return &cell[K, V]{tag: tagTombstone}
}

func newResizeCell[K comparable, V any]() *cell[K, V] {
	return &cell[K, V]{tag: tagResize}
}

// tagOf reports the tag of a (possibly nil) cell pointer.
func tagOf[K comparable, V any](c *cell[K, V]) cellTag {
	if c == nil {
		return tagNull
	}
	return c.tag
}

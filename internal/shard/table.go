// Package shard implements C5: the lock-based sharded map's data plane —
// the per-shard open-addressed inner table and the shard wrapper that
// guards it with a sync.RWMutex.
//
// Grounded on the teacher's pkg/shard.go (per-shard RWMutex, map-based
// index keyed by hash) generalized from a fixed-TTL cache entry into a
// general (K, V) slot, and on other_examples' Go hash-table idioms
// (31081011_aristanetworks-goarista hash-map.go, 8e31bd0a_sdrees-go
// internal/runtime/maps/map.go) for the open-addressing/backshift-delete
// probe sequence, which the teacher's map-of-pointers shard did not need
// since it delegated to Go's builtin map.
package shard

import (
	"github.com/Voskan/concurrentmap/internal/hashing"
)

// slotState distinguishes an empty probe position from one that holds a
// live (K, V) pair. Backshift deletion (moving a later-probed entry back
// into a freed slot) means the table never needs tombstones, which keeps
// Retain cheap per spec.md §4.5 ("the choice affects retain cost").
type slotState uint8

const (
	slotEmpty slotState = iota
	slotLive
)

type slot[K comparable, V any] struct {
	state slotState
	hash  uint64
	key   K
	value V
	// dist is the probe distance from the slot's ideal index, used for
	// Robin Hood displacement during insertion.
	dist int32
}

const maxLoadFactorNum, maxLoadFactorDen = 3, 4 // 0.75

// Table is an open-addressed (K, V) table using Robin Hood probing with
// backward-shift deletion. It is NOT safe for concurrent use on its own;
// callers (Shard) serialize access with a sync.RWMutex.
type Table[K comparable, V any] struct {
	slots []slot[K, V]
	mask  uint64
	count int
}

// NewTable allocates a table with at least the given initial capacity,
// rounded up to a power of two no smaller than 8.
func NewTable[K comparable, V any](capacityHint int) *Table[K, V] {
	cap64 := hashing.NextPowerOfTwo(uint64(max(capacityHint, 8)))
	return &Table[K, V]{
		slots: make([]slot[K, V], cap64),
		mask:  cap64 - 1,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int { return t.count }

// Cap returns the number of slots backing the table.
func (t *Table[K, V]) Cap() int { return len(t.slots) }

func (t *Table[K, V]) idealIndex(hash uint64) uint64 {
	return hash & t.mask
}

// needsGrow reports whether the table has crossed its 0.75 load-factor
// threshold and should be grown before the next insert.
func (t *Table[K, V]) needsGrow() bool {
	return (t.count+1)*maxLoadFactorDen > len(t.slots)*maxLoadFactorNum
}

// Get looks up key by its precomputed hash, returning the value and true
// if present.
func (t *Table[K, V]) Get(hash uint64, key K) (V, bool) {
	idx := t.idealIndex(hash)
	var dist int32
	for {
		s := &t.slots[idx]
		if s.state == slotEmpty || dist > s.dist {
			var zero V
			return zero, false
		}
		if s.hash == hash && s.key == key {
			return s.value, true
		}
		idx = (idx + 1) & t.mask
		dist++
	}
}

// Contains reports key's presence without copying the value.
func (t *Table[K, V]) Contains(hash uint64, key K) bool {
	_, ok := t.Get(hash, key)
	return ok
}

// Put inserts or updates (hash, key) -> value using Robin Hood probing:
// when the candidate slot belongs to an entry with a smaller probe
// distance than ours, we swap and keep inserting the displaced entry,
// which bounds worst-case probe length. Returns the previous value and
// true if the key already existed.
func (t *Table[K, V]) Put(hash uint64, key K, value V) (old V, existed bool) {
	idx := t.idealIndex(hash)
	incoming := slot[K, V]{state: slotLive, hash: hash, key: key, value: value, dist: 0}

	for {
		s := &t.slots[idx]
		if s.state == slotEmpty {
			*s = incoming
			t.count++
			return old, false
		}
		if s.hash == incoming.hash && s.key == incoming.key {
			old = s.value
			s.value = incoming.value
			return old, true
		}
		if s.dist < incoming.dist {
			// Robin Hood swap: the poorer (larger-distance) incoming entry
			// takes the slot, the richer entry it displaces continues probing.
			t.slots[idx], incoming = incoming, t.slots[idx]
		}
		idx = (idx + 1) & t.mask
		incoming.dist++
	}
}

// Delete removes key if present, backward-shifting subsequent entries in
// the probe chain to fill the gap so the table never accumulates
// tombstones. Returns the removed value and true if it existed.
func (t *Table[K, V]) Delete(hash uint64, key K) (old V, existed bool) {
	idx := t.idealIndex(hash)
	var dist int32
	for {
		s := &t.slots[idx]
		if s.state == slotEmpty || dist > s.dist {
			return old, false
		}
		if s.hash == hash && s.key == key {
			old = s.value
			t.backwardShift(idx)
			t.count--
			return old, true
		}
		idx = (idx + 1) & t.mask
		dist++
	}
}

// backwardShift moves each subsequent slot in the probe chain back by one
// position as long as it has a nonzero probe distance (i.e. it isn't
// sitting in its own ideal slot), closing the gap left by a deletion
// without ever introducing a tombstone.
func (t *Table[K, V]) backwardShift(gap uint64) {
	prev := gap
	next := (gap + 1) & t.mask
	for {
		s := &t.slots[next]
		if s.state == slotEmpty || s.dist == 0 {
			t.slots[prev] = slot[K, V]{}
			return
		}
		moved := *s
		moved.dist--
		t.slots[prev] = moved
		t.slots[next] = slot[K, V]{}
		prev = next
		next = (next + 1) & t.mask
	}
}

// Grow reallocates the table at double capacity and reinserts every live
// entry. Called by Shard once Table.needsGrow() reports true.
func (t *Table[K, V]) Grow() {
	old := t.slots
	newCap := uint64(len(old)) * 2
	if newCap == 0 {
		newCap = 8
	}
	t.slots = make([]slot[K, V], newCap)
	t.mask = newCap - 1
	t.count = 0
	for i := range old {
		if old[i].state == slotLive {
			t.Put(old[i].hash, old[i].key, old[i].value)
		}
	}
}

// EnsureCapacityForInsert grows the table if the next insert would cross
// the load-factor threshold. Callers hold the shard's write lock.
func (t *Table[K, V]) EnsureCapacityForInsert() {
	if t.needsGrow() {
		t.Grow()
	}
}

// Range calls fn for every live (hash, key, value) triple, stopping early
// if fn returns false. Used by Shard.Range and Shard.ShrinkToFit under the
// shard's lock, so it is a true (per-shard) snapshot even though the whole map's
// iteration is only weakly consistent across shards.
func (t *Table[K, V]) Range(fn func(hash uint64, key K, value V) bool) {
	for i := range t.slots {
		if t.slots[i].state == slotLive {
			if !fn(t.slots[i].hash, t.slots[i].key, t.slots[i].value) {
				return
			}
		}
	}
}

// RangeMut calls fn with a pointer to each live value so the caller can
// mutate in place (IterMut, AlterAll) or delete it by returning keep=false.
func (t *Table[K, V]) RangeMut(fn func(hash uint64, key K, value *V) (keep bool)) {
	i := 0
	for i < len(t.slots) {
		if t.slots[i].state == slotLive {
			if !fn(t.slots[i].hash, t.slots[i].key, &t.slots[i].value) {
				t.backwardShift(uint64(i))
				t.count--
				continue // re-check same index: backwardShift may have moved a new entry here
			}
		}
		i++
	}
}

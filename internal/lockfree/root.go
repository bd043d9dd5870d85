package lockfree

// root.go is the table-level façade (spec.md §4.6's "outer" lock-free
// structure): it owns the single published BucketArray pointer, installs
// and helps ResizeCoordinators, and exposes the Get/Insert/Remove/Alter
// operations that pkg/lockfree.Map calls through.
// Grounded on original_source/src/table/mod.rs's top-level Table struct,
// which plays exactly this coordinating role over a single atomic
// table pointer.

import (
	"sync/atomic"

	"github.com/Voskan/concurrentmap/internal/ebr"
	"github.com/Voskan/concurrentmap/internal/entrybox"
	"github.com/Voskan/concurrentmap/internal/hashing"
)

// Root is the lock-free table: one atomically-swapped BucketArray plus the
// machinery (EBR engine, box pool, striped length counter) every
// generation of that array shares.
type Root[K comparable, V any] struct {
	current atomic.Pointer[BucketArray[K, V]]
	length  *FastCounter
	pool    *entrybox.Pool[K, V]
	engine  *ebr.Engine
	hasher  hashing.Builder[K]
}

// NewRoot constructs a lock-free table with at least initialCapacity slots
// (rounded up to a power of two, minimum 8), using hasher to derive hashes
// and engine for epoch-based reclamation of retired boxes and arrays.
func NewRoot[K comparable, V any](initialCapacity int, hasher hashing.Builder[K], engine *ebr.Engine) *Root[K, V] {
	if initialCapacity < 8 {
		initialCapacity = 8
	}
	cap64 := hashing.NextPowerOfTwo(uint64(initialCapacity))
	r := &Root[K, V]{
		length: NewFastCounter(),
		pool:   entrybox.NewPool[K, V](),
		engine: engine,
		hasher: hasher,
	}
	arr := newBucketArray[K, V](cap64, r.length, r.pool, r.engine, r.onArrayFull)
	r.current.Store(arr)
	return r
}

func (r *Root[K, V]) onArrayFull(full *BucketArray[K, V]) {
	r.installCoordinator(full)
}

func (r *Root[K, V]) installCoordinator(old *BucketArray[K, V]) *ResizeCoordinator[K, V] {
	if c := old.coordinator.Load(); c != nil {
		return c
	}
	newArr := newBucketArray[K, V](old.cap()*2, r.length, r.pool, r.engine, r.onArrayFull)
	c := newResizeCoordinator[K, V](old, newArr)
	if !old.coordinator.CompareAndSwap(nil, c) {
		// another goroutine installed first; our newArr is simply
		// discarded and collected, nothing references it.
		return old.coordinator.Load()
	}
	return c
}

// helpResize drives migration for old's coordinator (installing one first
// if none exists yet) until the table's current array is no longer old,
// then returns the new current array.
func (r *Root[K, V]) helpResize(old *BucketArray[K, V]) *BucketArray[K, V] {
	c := old.coordinator.Load()
	if c == nil {
		c = r.installCoordinator(old)
	}
	for {
		c.migrateOneRange()
		if c.allMigrated() {
			c.publish(r)
		}
		if cur := r.current.Load(); cur != old {
			return cur
		}
	}
}

// Len returns the (weakly consistent) number of live entries.
func (r *Root[K, V]) Len() int { return int(r.length.Sum()) }

// Get returns the value stored for key and whether it was found.
func (r *Root[K, V]) Get(key K) (V, bool) {
	hash := r.hasher.Hash(key)
	fp := fingerprintOf(hash)
	arr := r.current.Load()
	for {
		if c := arr.coordinator.Load(); c != nil {
			arr = r.helpResize(arr)
			continue
		}
		v, ok, status := arr.get(hash, fp, key)
		if status == opRedirect {
			arr = r.helpResize(arr)
			continue
		}
		return v, ok
	}
}

// ContainsKey reports key's presence.
func (r *Root[K, V]) ContainsKey(key K) bool {
	_, ok := r.Get(key)
	return ok
}

// Insert upserts key -> value, returning the previous value and whether
// the key already existed.
func (r *Root[K, V]) Insert(key K, value V) (old V, existed bool) {
	hash := r.hasher.Hash(key)
	fp := fingerprintOf(hash)
	arr := r.current.Load()
	for {
		if c := arr.coordinator.Load(); c != nil {
			arr = r.helpResize(arr)
			continue
		}
		old, existed, status := arr.upsert(hash, fp, key, value)
		if status == opRedirect {
			arr = r.helpResize(arr)
			continue
		}
		return old, existed
	}
}

// Remove deletes key if present, returning the removed value.
func (r *Root[K, V]) Remove(key K) (old V, existed bool) {
	hash := r.hasher.Hash(key)
	fp := fingerprintOf(hash)
	arr := r.current.Load()
	for {
		if c := arr.coordinator.Load(); c != nil {
			arr = r.helpResize(arr)
			continue
		}
		old, existed, status := arr.remove(hash, fp, key)
		if status == opRedirect {
			arr = r.helpResize(arr)
			continue
		}
		return old, existed
	}
}

// RemoveIf deletes key only if pred(currentValue) holds.
func (r *Root[K, V]) RemoveIf(key K, pred func(V) bool) (old V, removed bool) {
	hash := r.hasher.Hash(key)
	fp := fingerprintOf(hash)
	arr := r.current.Load()
	for {
		if c := arr.coordinator.Load(); c != nil {
			arr = r.helpResize(arr)
			continue
		}
		old, removed, status := arr.removeIf(hash, fp, key, pred)
		if status == opRedirect {
			arr = r.helpResize(arr)
			continue
		}
		return old, removed
	}
}

// Alter applies f to key's current value (zero value, ok=false if
// absent), storing the result unless f requests deletion via keep=false.
func (r *Root[K, V]) Alter(key K, f func(v V, ok bool) (newV V, keep bool)) {
	hash := r.hasher.Hash(key)
	fp := fingerprintOf(hash)
	arr := r.current.Load()
	for {
		if c := arr.coordinator.Load(); c != nil {
			arr = r.helpResize(arr)
			continue
		}
		status := arr.alter(hash, fp, key, f)
		if status == opRedirect {
			arr = r.helpResize(arr)
			continue
		}
		return
	}
}

// Retain keeps only entries for which pred returns true. If a resize is in
// progress on the array it walked, it helps finish that resize and walks the
// successor array as well.
func (r *Root[K, V]) Retain(pred func(K, V) bool) {
	arr := r.current.Load()
	for {
		arr.retain(pred)
		if arr.coordinator.Load() == nil {
			return
		}
		arr = r.helpResize(arr)
	}
}

// Range calls fn for every live entry in a single (weakly consistent)
// pass over the currently published array, stopping early if fn returns
// false.
func (r *Root[K, V]) Range(fn func(K, V) bool) {
	r.current.Load().iterate(fn)
}

// Cap returns the number of slots backing the currently published array.
func (r *Root[K, V]) Cap() int {
	return int(r.current.Load().cap())
}

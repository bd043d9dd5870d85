package concurrentmap

// entry.go implements the Entry API: spec.md §4.5's guarantee that
// "between inspection and modification the key's shard remains
// exclusively locked by the caller." Entry holds that lock for its own
// lifetime; callers must finish with exactly one of OrInsert/OrInsertWith/
// Insert/Remove/ReplaceEntry/Release. AndModify keeps the lock and returns
// the entry for chaining.

import (
	"github.com/Voskan/concurrentmap/internal/shard"
)

// Entry is a handle into a single key's slot, held under its shard's
// exclusive lock until consumed.
type Entry[K comparable, V any] struct {
	shard    *shard.Shard[K, V]
	hash     uint64
	key      K
	value    V
	occupied bool
	done     bool
}

// Entry locks key's shard and returns a handle describing whether key is
// currently present (Occupied) or not (Vacant). The caller must consume
// the handle via exactly one of OrInsert, AndModify+OrInsert, Remove, or
// Release.
func (m *Map[K, V]) Entry(key K) *Entry[K, V] {
	hash := m.hashOf(key)
	sh, _ := m.shardFor(hash)
	sh.Lock()
	v, ok := sh.GetLocked(hash, key)
	return &Entry[K, V]{shard: sh, hash: hash, key: key, value: v, occupied: ok}
}

// Occupied reports whether the key was present when the entry was taken.
func (e *Entry[K, V]) Occupied() bool { return e.occupied }

// Key returns the entry's key.
func (e *Entry[K, V]) Key() K { return e.key }

// AndModify calls f with the current value if the entry is occupied,
// storing the result; it is a no-op on a vacant entry. Returns the entry
// itself so calls can chain into OrInsert.
func (e *Entry[K, V]) AndModify(f func(v V) V) *Entry[K, V] {
	if e.occupied {
		e.value = f(e.value)
		e.shard.PutLocked(e.hash, e.key, e.value)
	}
	return e
}

// OrInsert stores value if the entry is vacant, leaving an occupied entry
// untouched, then releases the shard lock and returns the resulting
// value.
func (e *Entry[K, V]) OrInsert(value V) V {
	defer e.release()
	if !e.occupied {
		e.value = value
		e.shard.PutLocked(e.hash, e.key, e.value)
		e.occupied = true
	}
	return e.value
}

// OrInsertWith is OrInsert, computing the value lazily only when the
// entry is vacant.
func (e *Entry[K, V]) OrInsertWith(f func() V) V {
	defer e.release()
	if !e.occupied {
		e.value = f()
		e.shard.PutLocked(e.hash, e.key, e.value)
		e.occupied = true
	}
	return e.value
}

// Insert unconditionally stores value, overwriting any existing value,
// releases the shard lock, and returns the previous value and whether it
// existed.
func (e *Entry[K, V]) Insert(value V) (old V, existed bool) {
	defer e.release()
	old, existed = e.value, e.occupied
	e.shard.PutLocked(e.hash, e.key, value)
	return old, existed
}

// Remove deletes the entry if occupied, releases the shard lock, and
// returns the removed value and whether it existed.
func (e *Entry[K, V]) Remove() (old V, existed bool) {
	defer e.release()
	if !e.occupied {
		var zero V
		return zero, false
	}
	return e.shard.DeleteLocked(e.hash, e.key)
}

// ReplaceEntry replaces the stored value only if the entry is occupied,
// releases the shard lock, and reports whether a replacement happened.
func (e *Entry[K, V]) ReplaceEntry(value V) (old V, replaced bool) {
	defer e.release()
	if !e.occupied {
		var zero V
		return zero, false
	}
	old = e.value
	e.shard.PutLocked(e.hash, e.key, value)
	return old, true
}

// Release drops the shard lock without making any change, for call sites
// that only wanted to inspect Occupied(). Safe to call at most once; also
// called automatically by OrInsert/Insert/Remove/ReplaceEntry.
func (e *Entry[K, V]) Release() { e.release() }

func (e *Entry[K, V]) release() {
	if !e.done {
		e.shard.Unlock()
		e.done = true
	}
}

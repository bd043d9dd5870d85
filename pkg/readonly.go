package concurrentmap

// readonly.go implements IntoReadOnly: like IntoContentsView, a stable
// snapshot, but exposing only a read-only surface (Get/ContainsKey/Len/
// Range) rather than the backing map, so callers can't accidentally
// mutate what the Map's contract promised was stable.

// ReadOnly is a stable, read-only snapshot of a Map's entries.
type ReadOnly[K comparable, V any] struct {
	view *ContentsView[K, V]
}

// IntoReadOnly copies m's entries into a ReadOnly snapshot, leaving m
// unchanged.
func (m *Map[K, V]) IntoReadOnly() *ReadOnly[K, V] {
	return &ReadOnly[K, V]{view: m.IntoContentsView()}
}

// Get returns the value stored for key in the snapshot.
func (r *ReadOnly[K, V]) Get(key K) (V, bool) { return r.view.Get(key) }

// ContainsKey reports key's presence in the snapshot.
func (r *ReadOnly[K, V]) ContainsKey(key K) bool {
	_, ok := r.view.Get(key)
	return ok
}

// Len returns the number of entries in the snapshot.
func (r *ReadOnly[K, V]) Len() int { return r.view.Len() }

// IsEmpty reports whether the snapshot has no entries.
func (r *ReadOnly[K, V]) IsEmpty() bool { return r.view.Len() == 0 }

// Range calls fn for every (key, value) pair in the snapshot, stopping
// early if fn returns false.
func (r *ReadOnly[K, V]) Range(fn func(key K, value V) bool) { r.view.Range(fn) }

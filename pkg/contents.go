package concurrentmap

// contents.go implements IntoContentsView: copying the map's entries into a
// stable snapshot whose entries are promised never to mutate or move
// (spec.md §4.5). Taking a full copy into a plain Go map is the
// idiomatic way to get that stability guarantee without keeping any
// shard locks alive past the call — a live reference into a shard could
// still be concurrently mutated by another handle to the same Map,
// which would violate the "no mutation" promise the view makes.

// ContentsView is a stable point-in-time snapshot of a Map's entries.
type ContentsView[K comparable, V any] struct {
	entries map[K]V
}

// IntoContentsView copies m's entries into a ContentsView, leaving m
// unchanged. The returned view is
// fully independent of m; subsequent mutation of m (if the caller kept
// other handles to it) is not reflected.
func (m *Map[K, V]) IntoContentsView() *ContentsView[K, V] {
	entries := make(map[K]V, m.Len())
	m.Iter(func(k K, v V) bool {
		entries[k] = v
		return true
	})
	return &ContentsView[K, V]{entries: entries}
}

// Get returns the value stored for key in the snapshot.
func (c *ContentsView[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// Len returns the number of entries captured in the snapshot.
func (c *ContentsView[K, V]) Len() int { return len(c.entries) }

// Range calls fn for every (key, value) pair in the snapshot, stopping
// early if fn returns false.
func (c *ContentsView[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range c.entries {
		if !fn(k, v) {
			return
		}
	}
}

// AsMap returns the snapshot's backing map. Callers must not mutate it;
// it is shared with the ContentsView, not copied again.
func (c *ContentsView[K, V]) AsMap() map[K]V { return c.entries }

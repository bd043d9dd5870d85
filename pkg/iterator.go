package concurrentmap

// iterator.go supplies the range-over-func form of Iter (static
// generics, the default per SPEC_FULL.md §9) plus one type-erased variant
// for call sites that can't name K/V at compile time — e.g. a generic CLI
// inspector walking whatever map it was pointed at. Keeping exactly one
// erased variant, rather than type-erasing everywhere, is the documented
// resolution of the spec's "dynamic dispatch in iterators" note.

// All returns a go1.23 range-over-func iterator over (key, value) pairs,
// so callers can write `for k, v := range m.All() { ... }` instead of
// passing a callback to Iter.
func (m *Map[K, V]) All() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		m.Iter(yield)
	}
}

// ErasedIter is a type-erased (key, value) iterator: the one place in the
// public API where dynamic dispatch replaces static generics, for code
// that needs to walk a Map without knowing its K/V at compile time.
type ErasedIter func(yield func(key any, value any) bool)

// Erased returns an ErasedIter over m's current contents.
func (m *Map[K, V]) Erased() ErasedIter {
	return func(yield func(key any, value any) bool) {
		m.Iter(func(k K, v V) bool {
			return yield(k, v)
		})
	}
}

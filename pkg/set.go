package concurrentmap

// set.go implements the set wrapper spec.md §6 describes: "a thin
// wrapper over map with V = (); methods drop the value parameter and
// rename insert -> insert(k) returning whether the key was new."

// Set is a concurrent set of K, implemented as a Map[K, struct{}].
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet constructs an empty Set with default capacity and hasher.
func NewSet[K comparable]() (*Set[K], error) {
	m, err := New[K, struct{}]()
	if err != nil {
		return nil, err
	}
	return &Set[K]{m: m}, nil
}

// Insert adds key to the set, returning true if it was not already
// present.
func (s *Set[K]) Insert(key K) bool {
	_, existed := s.m.Insert(key, struct{}{})
	return !existed
}

// Remove deletes key from the set, returning whether it was present.
func (s *Set[K]) Remove(key K) bool {
	_, existed := s.m.Remove(key)
	return existed
}

// Contains reports key's presence.
func (s *Set[K]) Contains(key K) bool { return s.m.ContainsKey(key) }

// Len returns the (weakly consistent) number of elements.
func (s *Set[K]) Len() int { return s.m.Len() }

// IsEmpty reports whether the set has no elements.
func (s *Set[K]) IsEmpty() bool { return s.m.IsEmpty() }

// Range calls fn for every element, stopping early if fn returns false.
func (s *Set[K]) Range(fn func(key K) bool) {
	s.m.Iter(func(k K, _ struct{}) bool { return fn(k) })
}

// Retain keeps only elements for which pred returns true.
func (s *Set[K]) Retain(pred func(key K) bool) {
	s.m.Retain(func(k K, _ struct{}) bool { return pred(k) })
}

// Clear removes every element.
func (s *Set[K]) Clear() { s.m.Clear() }

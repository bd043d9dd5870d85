// Package lockfree exposes C6/C7 — the lock-free bucket-array engine —
// as an alternative to the default sharded Map, for callers who want to
// opt into the lock-free core explicitly (spec.md §1's "explored as a
// replacement... preserved as an alternative implementation and test
// oracle"). Internally it is a thin façade over internal/lockfree,
// internal/ebr, and internal/hashing: one Root, one EBR Engine that every
// method pins around internally, and the default maphash-based Builder
// unless the caller overrides it.
package lockfree

import (
	"github.com/Voskan/concurrentmap/internal/ebr"
	"github.com/Voskan/concurrentmap/internal/hashing"
	"github.com/Voskan/concurrentmap/internal/lockfree"
)

// Map is the lock-free counterpart to concurrentmap.Map.
type Map[K comparable, V any] struct {
	root   *lockfree.Root[K, V]
	engine *ebr.Engine
}

// New constructs a lock-free Map with default initial capacity and the
// default maphash-based hasher.
func New[K comparable, V any]() *Map[K, V] {
	return WithCapacityAndHasher[K, V](8, hashing.NewMapHashBuilder[K]())
}

// WithCapacity constructs a lock-free Map pre-sized to capacity entries.
func WithCapacity[K comparable, V any](capacity int) *Map[K, V] {
	return WithCapacityAndHasher[K, V](capacity, hashing.NewMapHashBuilder[K]())
}

// WithCapacityAndHasher constructs a lock-free Map with both an initial
// capacity and a caller-supplied hash builder.
func WithCapacityAndHasher[K comparable, V any](capacity int, h hashing.Builder[K]) *Map[K, V] {
	engine := ebr.NewEngine()
	return &Map[K, V]{root: lockfree.NewRoot[K, V](capacity, h, engine), engine: engine}
}

// Participant is a re-exported alias of internal/ebr.Participant: a
// per-goroutine EBR registration handle (standing in for Go's lack of
// true thread-local storage; see DESIGN.md). Every Map method below
// registers its own transient participant and pins/unpins around its own
// body, whether or not the caller holds a participant. Acquiring one
// explicitly lets a caller hold a pin open across several calls — acquire
// it with m.NewParticipant(), Close it when done.
type Participant = ebr.Participant

// NewParticipant registers the calling goroutine with m's EBR engine.
// The caller must Close it when done.
func (m *Map[K, V]) NewParticipant() *Participant {
	return m.engine.NewParticipant()
}

func newTransientParticipant(e *ebr.Engine) *ebr.Participant {
	return e.NewParticipant()
}

// Get returns the value stored for key and whether it was found.
func (m *Map[K, V]) Get(key K) (V, bool) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	return m.root.Get(key)
}

// ContainsKey reports key's presence.
func (m *Map[K, V]) ContainsKey(key K) bool {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	return m.root.ContainsKey(key)
}

// Insert upserts key -> value, returning the previous value and whether
// the key already existed.
func (m *Map[K, V]) Insert(key K, value V) (old V, existed bool) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	return m.root.Insert(key, value)
}

// Remove deletes key if present, returning the removed value.
func (m *Map[K, V]) Remove(key K) (old V, existed bool) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	return m.root.Remove(key)
}

// RemoveIf deletes key only if pred(currentValue) holds.
func (m *Map[K, V]) RemoveIf(key K, pred func(V) bool) (old V, removed bool) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	return m.root.RemoveIf(key, pred)
}

// Alter applies f to key's current value (zero value, ok=false if
// absent), storing the result unless f returns keep=false.
func (m *Map[K, V]) Alter(key K, f func(v V, ok bool) (newV V, keep bool)) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	m.root.Alter(key, f)
}

// Retain keeps only entries for which pred returns true.
func (m *Map[K, V]) Retain(pred func(K, V) bool) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	m.root.Retain(pred)
}

// Iter calls fn for every live entry in a single weakly-consistent pass,
// stopping early if fn returns false (spec.md §4.6: iteration stays on
// the snapshot array it began with, even across a concurrent resize).
func (m *Map[K, V]) Iter(fn func(K, V) bool) {
	p := newTransientParticipant(m.engine)
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	m.root.Range(fn)
}

// Len returns the (weakly consistent) number of live entries.
func (m *Map[K, V]) Len() int { return m.root.Len() }

// Capacity returns the number of slots backing the currently published
// bucket array.
func (m *Map[K, V]) Capacity() int { return m.root.Cap() }

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V]) IsEmpty() bool { return m.Len() == 0 }

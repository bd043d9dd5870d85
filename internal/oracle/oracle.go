// Package oracle cross-checks the sharded core (pkg.Map) and the
// lock-free core (pkg/lockfree.Map) against each other and against a
// mutex-guarded Go map reference, for the differential/property scenarios
// spec.md §8 describes (parallel insert+get, concurrent mix, resize
// under contention, weakly consistent iteration) — this is the stand-in
// for a Loom-style model checker, which Go has no equivalent of (see
// DESIGN.md's "loom" entry).
package oracle

import "sync"

// Reference is a trivial, obviously-correct key/value relation used as
// the ground truth in differential tests: whatever a workload does to a
// Subject, it does the same to a Reference, and the two are compared at
// the end (or at quiescent checkpoints).
type Reference[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// NewReference constructs an empty reference oracle.
func NewReference[K comparable, V any]() *Reference[K, V] {
	return &Reference[K, V]{m: make(map[K]V)}
}

// Insert mirrors Subject.Insert's (old, existed) contract.
func (r *Reference[K, V]) Insert(key K, value V) (old V, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, existed = r.m[key]
	r.m[key] = value
	return old, existed
}

// Remove mirrors Subject.Remove's (old, existed) contract.
func (r *Reference[K, V]) Remove(key K) (old V, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, existed = r.m[key]
	delete(r.m, key)
	return old, existed
}

// Get mirrors Subject.Get's (value, found) contract.
func (r *Reference[K, V]) Get(key K) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.m[key]
	return v, ok
}

// Len reports the reference's current size.
func (r *Reference[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// Snapshot returns a copy of the reference's entire contents, for
// comparison against a Subject's own snapshot at a quiescent point.
func (r *Reference[K, V]) Snapshot() map[K]V {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[K]V, len(r.m))
	for k, v := range r.m {
		out[k] = v
	}
	return out
}

// Subject is the minimal surface both concurrentmap.Map and
// concurrentmap/pkg/lockfree.Map satisfy, letting the same workload
// driver run against either core.
type Subject[K comparable, V any] interface {
	Insert(key K, value V) (old V, existed bool)
	Remove(key K) (old V, existed bool)
	Get(key K) (V, bool)
	Len() int
}

// Op identifies one differential-workload operation kind.
type Op int

const (
	OpInsert Op = iota
	OpRemove
	OpGet
)

// Workload is one (op, key, value) step to apply identically to a
// Subject and a Reference.
type Workload[K comparable, V any] struct {
	Op    Op
	Key   K
	Value V
}

// Apply runs one workload step against subject and ref, panicking if
// their return values diverge — the differential check itself.
func Apply[K comparable, V any](subject Subject[K, V], ref *Reference[K, V], w Workload[K, V]) {
	switch w.Op {
	case OpInsert:
		gotV, gotOK := subject.Insert(w.Key, w.Value)
		wantV, wantOK := ref.Insert(w.Key, w.Value)
		if gotOK != wantOK || (gotOK && any(gotV) != any(wantV)) {
			panic("oracle: insert divergence")
		}
	case OpRemove:
		gotV, gotOK := subject.Remove(w.Key)
		wantV, wantOK := ref.Remove(w.Key)
		if gotOK != wantOK || (gotOK && any(gotV) != any(wantV)) {
			panic("oracle: remove divergence")
		}
	case OpGet:
		gotV, gotOK := subject.Get(w.Key)
		wantV, wantOK := ref.Get(w.Key)
		if gotOK != wantOK || (gotOK && any(gotV) != any(wantV)) {
			panic("oracle: get divergence")
		}
	}
}

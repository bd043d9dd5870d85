// Package ebr implements C3: epoch-based reclamation for the lock-free core.
//
// Grounded on original_source/src/gc/{epoch,thread_state,queue}.rs (the
// dashmap-derived 4-state global epoch with per-thread pin/unpin and
// deferred destructor queues) and, for the Go idiom of representing the
// epoch as a small atomic counter plus a per-goroutine reader state, on
// other_examples' mjm918-tur cowbtree/epoch.go.
package ebr

import "sync/atomic"

// Epoch is one of four states, matching spec.md §3 ("global epoch value
// e ∈ {0,1,2,3} (mod 4)").
type Epoch uint32

// Next returns the epoch following e, wrapping 3 -> 0.
func (e Epoch) Next() Epoch {
	return (e + 1) % 4
}

// atomicEpoch is an atomic.Uint32 restricted to the four valid Epoch values.
type atomicEpoch struct {
	raw atomic.Uint32
}

func (a *atomicEpoch) load() Epoch {
	return Epoch(a.raw.Load())
}

func (a *atomicEpoch) store(e Epoch) {
	a.raw.Store(uint32(e))
}

// tryAdvance attempts to CAS the atomic from its currently-loaded value to
// its successor. On success it returns the new epoch and true; on failure
// (another thread already advanced it) it returns the zero epoch and false
// without retrying — advance failures are expected and silent per spec.md
// §4.3 ("Failure semantics").
func (a *atomicEpoch) tryAdvance() (Epoch, bool) {
	cur := a.raw.Load()
	next := (cur + 1) % 4
	if a.raw.CompareAndSwap(cur, next) {
		return Epoch(next), true
	}
	return 0, false
}

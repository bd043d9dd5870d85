package ebr

// state.go implements the per-thread state described in spec.md §4.3: a
// nested "active" counter and a local epoch snapshot taken on the
// outermost Enter. Grounded on original_source/src/gc/thread_state.rs.

import "sync/atomic"

// threadState is registered once per EBR-participating goroutine via
// internal/registry and updated only by that goroutine (the registry's
// Iter is the only cross-goroutine reader).
type threadState struct {
	active     atomic.Int32 // nesting depth; 0 == not pinned
	localEpoch atomicEpoch
	rng        splitmix64 // per-thread fast PRNG for probabilistic advance
}

// isActive reports whether this thread currently holds at least one pin.
func (t *threadState) isActive() bool {
	return t.active.Load() != 0
}

// loadEpoch returns the epoch this thread last pinned at; only meaningful
// while isActive() is true.
func (t *threadState) loadEpoch() Epoch {
	return t.localEpoch.load()
}

/* -------------------------------------------------------------------------
   Minimal fast PRNG (splitmix64) used only to decide, with roughly 1-in-N
   odds, whether an Exit call should attempt to advance the global epoch.
   Not cryptographic; collisions/bias here only affect how often we *try* to
   advance, never correctness.
   ------------------------------------------------------------------------- */

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

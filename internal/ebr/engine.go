package ebr

// engine.go ties epoch.go, state.go and queue.go together into the C3
// engine: Enter/Exit (pin/unpin), Retire, and the probabilistic Advance +
// Collect cycle. Grounded throughout on
// original_source/src/gc/{epoch,thread_state,queue}.rs; the "is every
// active thread caught up" scan is grounded on other_examples'
// mjm918-tur cowbtree/epoch.go findMinActiveEpoch, adapted from a
// min-epoch computation to a strict "all active threads == global epoch"
// check per spec.md §4.3 ("Advance").

import (
	"sync/atomic"

	"github.com/Voskan/concurrentmap/internal/registry"
)

// collectChance mirrors original_source's COLLECT_CHANCE: roughly 1-in-N
// odds that an Exit call bothers to even check whether advancing is
// worthwhile, since Advance enumerates every registered thread and is not
// free.
const collectChance = 4

// Engine is an EBR coordinator; each pkg/lockfree.Map constructs its own.
type Engine struct {
	global  atomicEpoch
	queues  [4]*queue
	threads *registry.Registry[threadState]

	advancing atomic.Bool // prevents concurrent Advance attempts from duplicating work
}

// NewEngine constructs an Engine with the global epoch starting at 0 and
// four empty destructor queues.
func NewEngine() *Engine {
	e := &Engine{threads: registry.New[threadState]()}
	for i := range e.queues {
		e.queues[i] = newQueue()
	}
	return e
}

// Pin represents one held critical section. Exit must be called exactly
// once, typically via defer immediately after Enter, so that a panicking
// user hash/equality function still releases the pin before the panic
// unwinds (spec.md §9, "Exception/panic behavior inside the lock-free
// core").
type Pin struct {
	engine *Engine
	handle *registry.Handle[threadState]
	state  *threadState
	nested bool // true if this Pin is a re-entrant (nested) pin
	done   bool
}

// Participant is held by a goroutine across its whole EBR-participating
// lifetime (e.g. for the duration it holds a *Map), registering it once and
// letting repeated Enter calls just bump the nesting counter.
type Participant struct {
	engine *Engine
	handle *registry.Handle[threadState]
	state  *threadState
}

// NewParticipant registers the calling goroutine with the engine. The
// returned participant should be released (via Close) when the goroutine is
// done touching the lock-free map, mirroring how a ThreadLocal entry is
// torn down on thread exit.
func (e *Engine) NewParticipant() *Participant {
	st := &threadState{}
	st.localEpoch.store(e.global.load())
	h := e.threads.Acquire(st)
	return &Participant{engine: e, handle: h, state: st}
}

// Close releases the dense id backing this participant. Must only be
// called when the participant is not pinned.
func (p *Participant) Close() {
	p.handle.Release()
}

// Enter begins a critical section for this participant. Nested Enter calls
// (from recursive helper logic, e.g. a resize helper calling back into a
// probe) are legal and only increment the depth counter.
func (p *Participant) Enter() *Pin {
	st := p.state
	nested := st.active.Add(1) != 1
	if !nested {
		// Outermost entry: snapshot the global epoch. The store follows
		// the counter transition, so a concurrent Advance scan may see
		// "active" with the previous localEpoch; allActiveCaughtUp then
		// treats this thread as lagging and does not advance.
		st.localEpoch.store(p.engine.global.load())
	}
	return &Pin{engine: p.engine, handle: p.handle, state: st, nested: nested}
}

// Exit releases the pin. Calling Exit twice on the same Pin, or calling it
// without a matching Enter, is a caller logic error and is debug-asserted
// via panic (spec.md §7, "Logic errors by caller").
func (pin *Pin) Exit() {
	if pin.done {
		panic("ebr: Pin.Exit called more than once")
	}
	pin.done = true

	prev := pin.state.active.Add(-1) + 1
	if prev == 0 {
		panic("ebr: Pin.Exit called without a matching Enter")
	}
	if prev == 1 {
		// Outermost exit: probabilistically consider advancing.
		if pin.state.rng.next()%collectChance == 0 && pin.engine.shouldAdvance() {
			pin.engine.tryCycle()
		}
	}
}

// Retire hands dealloc to the current epoch's destructor queue. dealloc is
// invoked once Collect determines no pinned thread can still observe the
// retired object (two full epochs of separation).
func (e *Engine) Retire(dealloc func()) {
	cur := e.global.load()
	e.queues[cur].push(retired{dealloc: dealloc})
}

// shouldAdvance reports whether the current epoch's queue is at least half
// full, the heuristic spec.md §4.3 specifies for the probabilistic check.
func (e *Engine) shouldAdvance() bool {
	cur := e.global.load()
	return e.queues[cur].approxLen()*2 >= segmentCapacity
}

// tryCycle attempts one Advance; on success it immediately Collects the
// epoch that just became safe-to-reclaim. Advance failure (another thread
// is lagging, or a concurrent Advance is already running) is expected and
// silent.
func (e *Engine) tryCycle() {
	if !e.advancing.CompareAndSwap(false, true) {
		return
	}
	defer e.advancing.Store(false)

	if !e.allActiveCaughtUp() {
		return
	}
	newEpoch, ok := e.global.tryAdvance()
	if !ok {
		return
	}
	safeEpoch := Epoch((uint32(newEpoch) + 2) % 4)
	e.collect(safeEpoch)
}

// allActiveCaughtUp enumerates every registered thread and reports whether
// every *active* one has observed the current global epoch, which is the
// precondition for advancing (spec.md §4.3, "Advance").
func (e *Engine) allActiveCaughtUp() bool {
	cur := e.global.load()
	allCaughtUp := true
	e.threads.Iter(func(st *threadState) bool {
		if st.isActive() && st.loadEpoch() != cur {
			allCaughtUp = false
			return false
		}
		return true
	})
	return allCaughtUp
}

// collect drains the destructor queue for the now-safe epoch, invoking
// every pending dealloc, and installs a fresh empty queue in its place.
func (e *Engine) collect(safeEpoch Epoch) {
	old := e.queues[safeEpoch].reset()
	old.drain(func(r retired) {
		r.dealloc()
	})
}

// CurrentEpoch exposes the global epoch for diagnostics and tests.
func (e *Engine) CurrentEpoch() Epoch {
	return e.global.load()
}

// PendingCount sums the approximate length of all four queues, for
// diagnostics/tests only.
func (e *Engine) PendingCount() int {
	total := 0
	for _, q := range e.queues {
		total += q.approxLen()
	}
	return total
}

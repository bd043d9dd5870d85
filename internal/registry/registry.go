// Package registry implements C4: the thread-local registry that hands out
// dense uint32 ids to call sites on first use and recycles them when
// released, backed by a wait-free lookup table that grows under a mutex.
//
// Go has no stable OS-thread identifier the way the source ecosystem's
// ThreadLocal does, so a Handle here is acquired explicitly by whatever
// long-lived goroutine wants EBR-pinned access (typically once per worker
// goroutine, held for that goroutine's lifetime) rather than derived from
// a thread id. This is the Open Question resolution recorded in
// SPEC_FULL.md §4.4.
package registry

import (
	"container/heap"
	"sync"
	"sync/atomic"
)

const initialBuckets = 32

// Registry hands out dense ids backed by a chained, doubling bucket table.
// Lookup by id is wait-free; growth takes growMu.
type Registry[T any] struct {
	table atomic.Pointer[bucketTable[T]]

	growMu  sync.Mutex
	idHeap  minHeap
	nextID  uint32
}

type bucketTable[T any] struct {
	slots []atomic.Pointer[T]
	prev  *bucketTable[T] // previous generation, kept so in-flight readers can finish
}

// New constructs an empty registry.
func New[T any]() *Registry[T] {
	r := &Registry[T]{}
	r.table.Store(&bucketTable[T]{slots: make([]atomic.Pointer[T], initialBuckets)})
	return r
}

// Handle is a reservation of one dense id in the registry, holding a pointer
// to the caller-supplied state.
type Handle[T any] struct {
	id  uint32
	reg *Registry[T]
}

// ID returns the dense id backing this handle.
func (h *Handle[T]) ID() uint32 { return h.id }

// Acquire reserves a dense id (recycling a released one if available),
// installs state at that slot, and returns a Handle. Growth of the backing
// table, if needed, happens under growMu; the previous generation is kept
// reachable via bucketTable.prev so any goroutine mid-Iter on the old table
// still observes a consistent (if stale) view rather than a freed slice.
func (r *Registry[T]) Acquire(state *T) *Handle[T] {
	r.growMu.Lock()
	var id uint32
	if r.idHeap.Len() > 0 {
		id = heap.Pop(&r.idHeap).(uint32)
	} else {
		id = r.nextID
		r.nextID++
	}
	tbl := r.ensureCapacityLocked(id)
	r.growMu.Unlock()

	tbl.slots[id].Store(state)
	return &Handle[T]{id: id, reg: r}
}

// ensureCapacityLocked grows the table (doubling) until it can hold id.
// Must be called with growMu held.
func (r *Registry[T]) ensureCapacityLocked(id uint32) *bucketTable[T] {
	tbl := r.table.Load()
	if int(id) < len(tbl.slots) {
		return tbl
	}
	newLen := len(tbl.slots)
	for newLen <= int(id) {
		newLen *= 2
	}
	fresh := &bucketTable[T]{slots: make([]atomic.Pointer[T], newLen), prev: tbl}
	for i := range tbl.slots {
		if p := tbl.slots[i].Load(); p != nil {
			fresh.slots[i].Store(p)
		}
	}
	r.table.Store(fresh)
	return fresh
}

// Release recycles the handle's id: the slot is cleared and the id is
// pushed back onto the min-heap so future Acquire calls reuse small ids
// first, keeping the table compact.
func (h *Handle[T]) Release() {
	tbl := h.reg.table.Load()
	if int(h.id) < len(tbl.slots) {
		tbl.slots[h.id].Store(nil)
	}
	h.reg.growMu.Lock()
	heap.Push(&h.reg.idHeap, h.id)
	h.reg.growMu.Unlock()
}

// Iter invokes fn once for every currently registered, non-released state.
// It walks a snapshot of the table taken at call time (wait-free, no lock),
// so it is weakly consistent with respect to concurrent Acquire/Release —
// consistent with the map's own iteration guarantees. fn returning false
// stops iteration early.
func (r *Registry[T]) Iter(fn func(*T) bool) {
	tbl := r.table.Load()
	for i := range tbl.slots {
		if p := tbl.slots[i].Load(); p != nil {
			if !fn(p) {
				return
			}
		}
	}
}

/* -------------------------------------------------------------------------
   Min-heap of recycled ids — keeps ids dense and small.
   ------------------------------------------------------------------------- */

type minHeap []uint32

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(uint32)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

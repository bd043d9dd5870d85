package lockfree

// resize.go implements C7: the cooperative resize coordinator. Grounded on
// original_source/src/resize/coordinator.rs (lazy installation, a claimed
// range-task list, and a single winning publish) and, for the Go
// encoding of "any thread may help," on internal/ebr/engine.go's
// tryCycle() CAS-guard pattern used elsewhere in this module.
//
// Once installed on array A, every Root operation that observes
// A.coordinator != nil calls helpResize instead of probing A, and the new
// array is not visible to Root operations until it has been published. A
// writer that checked A.coordinator just before installation can still
// reach a not-yet-frozen cell of A; migrateIndex handles that race by
// freezing each cell with a CompareAndSwap and retrying when it loses.

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const minRangeSize = 32

// ResizeCoordinator drives the one-time migration from old to new. The
// unclaimed portion of old's index space is a range-task list: each
// helper locks taskMu just long enough to pop its own [start, end) slice
// off the front, then migrates it lock-free.
type ResizeCoordinator[K comparable, V any] struct {
	old *BucketArray[K, V]
	new *BucketArray[K, V]

	rangeSize uint64
	taskMu    sync.Mutex
	nextStart uint64
	done      atomic.Int64 // count of indices whose migration has concluded
	published atomic.Bool
}

func newResizeCoordinator[K comparable, V any](old, new *BucketArray[K, V]) *ResizeCoordinator[K, V] {
	rangeSize := old.cap() / uint64(maxInt(runtime.GOMAXPROCS(0)*4, 1))
	if rangeSize < minRangeSize {
		rangeSize = minRangeSize
	}
	if rangeSize > old.cap() {
		rangeSize = old.cap()
	}
	return &ResizeCoordinator[K, V]{old: old, new: new, rangeSize: rangeSize}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// claimRange pops the next unclaimed [start, end) slice off the
// range-task list, or reports ok=false once the list is empty.
func (c *ResizeCoordinator[K, V]) claimRange() (start, end uint64, ok bool) {
	c.taskMu.Lock()
	defer c.taskMu.Unlock()
	if c.nextStart >= c.old.cap() {
		return 0, 0, false
	}
	start = c.nextStart
	end = start + c.rangeSize
	if end > c.old.cap() {
		end = c.old.cap()
	}
	c.nextStart = end
	return start, end, true
}

// migrateOneRange claims the next range from the task list, if any, and
// migrates every cell in it.
func (c *ResizeCoordinator[K, V]) migrateOneRange() {
	start, end, ok := c.claimRange()
	if !ok {
		return
	}
	for i := start; i < end; i++ {
		c.migrateIndex(i)
	}
	c.done.Add(int64(end - start))
}

// migrateIndex freezes a single old-array cell, copying a live box into
// the new array only on the CAS that wins the freeze. The cell is frozen
// (Live/Null/Tombstone → Resize) first; the copy (by reference — AddRef,
// not a deep copy) happens after, using the box that was actually frozen.
// This order matters: freezing first guarantees at most one copy is ever
// made for a given index, no matter how many times a concurrent writer
// mutates the cell out from under a retrying migrator.
func (c *ResizeCoordinator[K, V]) migrateIndex(i uint64) {
	frozen := newResizeCell[K, V]()
	for {
		oldC := c.old.cells[i].Load()
		switch tagOf(oldC) {
		case tagResize:
			return // a concurrent helper already migrated this index
		case tagNull, tagTombstone:
			if c.old.cells[i].CompareAndSwap(oldC, frozen) {
				return
			}
		case tagLive:
			if c.old.cells[i].CompareAndSwap(oldC, frozen) {
				oldC.box.AddRef()
				c.new.installDuringMigration(oldC.box, oldC.fingerprint)
				return
			}
			// lost the freeze race to a concurrent writer that mutated
			// this cell (an ordinary Insert/Remove/Alter can still reach
			// a not-yet-frozen cell after the coordinator is installed,
			// since root.go only checks for a coordinator once before
			// entering upsert/remove). Nothing was copied, so reread and
			// retry from the top against whatever is there now.
		}
	}
}

// allMigrated reports whether every index of old has been claimed and
// concluded.
func (c *ResizeCoordinator[K, V]) allMigrated() bool {
	return uint64(c.done.Load()) >= c.old.cap()
}

// publish installs new as the table's current array. Only the winner of
// the CompareAndSwap actually publishes; everyone else just observes the
// new array on their next load of root.current. The old array is retired
// through EBR — symbolic under Go's tracing GC (nothing is explicitly
// freed), kept for fidelity with the spec's reclamation model and as the
// natural place to hang future diagnostics (e.g. counting retired arrays).
func (c *ResizeCoordinator[K, V]) publish(r *Root[K, V]) {
	if c.published.Load() {
		return
	}
	if !r.current.CompareAndSwap(c.old, c.new) {
		return
	}
	c.published.Store(true)
	old := c.old
	r.engine.Retire(func() { _ = old })
}

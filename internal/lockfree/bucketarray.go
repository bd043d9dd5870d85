package lockfree

// bucketarray.go implements C6's per-array CRUD operations: probing with
// fingerprint fast-reject, CAS-based transitions between cell tags, and
// redirection once a cell has been frozen into tagResize by a concurrent
// ResizeCoordinator. Grounded on original_source/src/table/bucket_cas.rs
// (the Null/Tombstone/Live/Resize CAS state machine) and, for the
// box-retirement half, internal/ebr/engine.go's Retire queue.
//
// A BucketArray never grows itself: hitting a full probe sequence, or a
// load factor past the resize threshold, only ever flips a flag a
// ResizeCoordinator is watching (see resize.go). The array itself always
// stays a fixed size once constructed.

import (
	"sync/atomic"

	"github.com/Voskan/concurrentmap/internal/ebr"
	"github.com/Voskan/concurrentmap/internal/entrybox"
	"github.com/Voskan/concurrentmap/internal/hashing"
)

// opStatus reports how a per-array operation concluded.
type opStatus int

const (
	opOK opStatus = iota
	// opRedirect means the probe sequence ran into a frozen (tagResize)
	// cell, or exhausted itself under extreme contention; the caller
	// (Root) must help the in-flight resize to completion and retry
	// against the new array.
	opRedirect
)

// maxLoadFactorNum/Den bounds how full a BucketArray is allowed to get
// before triggerResize is invoked on the next insert.
const maxLoadFactorNum, maxLoadFactorDen = 3, 4

// BucketArray is one fixed-size generation of the lock-free table.
type BucketArray[K comparable, V any] struct {
	cells          []atomic.Pointer[cell[K, V]]
	mask           uint64
	cellsRemaining atomic.Int64
	length         *FastCounter
	pool           *entrybox.Pool[K, V]
	engine         *ebr.Engine

	// coordinator is lazily installed by triggerResize; successive callers
	// that also observe the need to resize just read the same one back.
	coordinator atomic.Pointer[ResizeCoordinator[K, V]]
	// onNeedsResize is supplied by Root so a BucketArray never needs to
	// know about Root directly; it just reports "I'm full" upward.
	onNeedsResize func(full *BucketArray[K, V])
}

// newBucketArray allocates a fresh array of the given capacity (already
// rounded to a power of two by the caller) sharing length/pool/engine with
// the rest of the table.
func newBucketArray[K comparable, V any](capacity uint64, length *FastCounter, pool *entrybox.Pool[K, V], engine *ebr.Engine, onNeedsResize func(*BucketArray[K, V])) *BucketArray[K, V] {
	a := &BucketArray[K, V]{
		cells:         make([]atomic.Pointer[cell[K, V]], capacity),
		mask:          capacity - 1,
		length:        length,
		pool:          pool,
		engine:        engine,
		onNeedsResize: onNeedsResize,
	}
	a.cellsRemaining.Store(int64(capacity * maxLoadFactorNum / maxLoadFactorDen))
	return a
}

func (a *BucketArray[K, V]) cap() uint64 { return a.mask + 1 }

func (a *BucketArray[K, V]) triggerResize() {
	if a.onNeedsResize != nil {
		a.onNeedsResize(a)
	}
}

func (a *BucketArray[K, V]) retireBox(box *entrybox.Box[K, V]) {
	if box.Release() {
		pool := a.pool
		a.engine.Retire(func() {
			if pool != nil {
				pool.Put(box)
			}
		})
	}
}

// get performs a fingerprint-guided probe for key, stopping at the first
// tagNull cell (definitive miss) or a matching tagLive cell (hit).
// Tombstones are skipped; a frozen cell redirects the caller.
func (a *BucketArray[K, V]) get(hash uint64, fp uint16, key K) (V, bool, opStatus) {
	var zero V
	idx := hash & a.mask
	for i := uint64(0); i <= a.mask; i++ {
		c := a.cells[idx].Load()
		switch tagOf(c) {
		case tagNull:
			return zero, false, opOK
		case tagResize:
			return zero, false, opRedirect
		case tagLive:
			if c.fingerprint == fp && c.box.Key == key {
				return c.box.Value, true, opOK
			}
		case tagTombstone:
			// keep probing
		}
		idx = (idx + 1) & a.mask
	}
	return zero, false, opOK
}

// upsert inserts key->value if absent, or replaces the existing value if
// present, per the CAS state machine in spec.md §4.6: Null->Live and
// Tombstone->Live both claim the cell (only Null->Live counts against
// cellsRemaining — reusing a tombstone must not make the table look
// fuller than it is), Live(same key)->Live swaps and retires the old box,
// Live(other key) keeps probing.
func (a *BucketArray[K, V]) upsert(hash uint64, fp uint16, key K, value V) (old V, existed bool, status opStatus) {
	var zero V
	idx := hash & a.mask

outer:
	for attempts := uint64(0); attempts <= a.mask; attempts++ {
		for {
			oldC := a.cells[idx].Load()
			t := tagOf(oldC)

			if t == tagResize {
				return zero, false, opRedirect
			}
			if t == tagLive && !(oldC.fingerprint == fp && oldC.box.Key == key) {
				idx = (idx + 1) & a.mask
				continue outer
			}

			box := a.pool.Get(key, hash, value)
			newC := &cell[K, V]{tag: tagLive, fingerprint: fp, box: box}
			if !a.cells[idx].CompareAndSwap(oldC, newC) {
				continue // another writer changed this cell; re-read and retry
			}

			switch t {
			case tagNull:
				if a.cellsRemaining.Add(-1) <= 0 {
					a.triggerResize()
				}
				a.length.Add(hash, 1)
				return zero, false, opOK
			case tagTombstone:
				a.length.Add(hash, 1)
				return zero, false, opOK
			default: // tagLive, matching key
				oldVal := oldC.box.Value
				a.retireBox(oldC.box)
				return oldVal, true, opOK
			}
		}
	}
	// Exhausted every cell without finding room: the array is saturated
	// under load faster than cellsRemaining's threshold predicted it.
	// Force a resize and ask the caller to retry on the new array.
	a.triggerResize()
	return zero, false, opRedirect
}

// alter applies f to key's current value (the zero value with ok=false if
// key is absent), installing the result unless f returns keep=false, in
// which case an absent key stays absent and a present key is removed.
func (a *BucketArray[K, V]) alter(hash uint64, fp uint16, key K, f func(v V, ok bool) (newV V, keep bool)) opStatus {
	idx := hash & a.mask

outer:
	for attempts := uint64(0); attempts <= a.mask; attempts++ {
		for {
			c := a.cells[idx].Load()
			t := tagOf(c)

			switch t {
			case tagResize:
				return opRedirect

			case tagLive:
				if !(c.fingerprint == fp && c.box.Key == key) {
					idx = (idx + 1) & a.mask
					continue outer
				}
				newV, keep := f(c.box.Value, true)
				if keep {
					box := a.pool.Get(key, hash, newV)
					newC := &cell[K, V]{tag: tagLive, fingerprint: fp, box: box}
					if !a.cells[idx].CompareAndSwap(c, newC) {
						continue
					}
					a.retireBox(c.box)
					return opOK
				}
				tomb := newTombstoneCell[K, V]()
				if !a.cells[idx].CompareAndSwap(c, tomb) {
					continue
				}
				a.retireBox(c.box)
				a.length.Add(hash, -1)
				return opOK

			default: // tagNull or tagTombstone: key is absent here
				var zero V
				newV, keep := f(zero, false)
				if !keep {
					return opOK
				}
				box := a.pool.Get(key, hash, newV)
				newC := &cell[K, V]{tag: tagLive, fingerprint: fp, box: box}
				if !a.cells[idx].CompareAndSwap(c, newC) {
					continue
				}
				if t == tagNull {
					if a.cellsRemaining.Add(-1) <= 0 {
						a.triggerResize()
					}
				}
				a.length.Add(hash, 1)
				return opOK
			}
		}
	}
	a.triggerResize()
	return opRedirect
}

// remove transitions a matching live cell to a tombstone cell, retiring its box through EBR. cellsRemaining is untouched:
// a tombstone still occupies a slot for probe-chain purposes.
func (a *BucketArray[K, V]) remove(hash uint64, fp uint16, key K) (old V, existed bool, status opStatus) {
	var zero V
	idx := hash & a.mask
	tomb := newTombstoneCell[K, V]()

outer:
	for i := uint64(0); i <= a.mask; i++ {
		for {
			oldC := a.cells[idx].Load()
			t := tagOf(oldC)
			switch t {
			case tagNull:
				return zero, false, opOK
			case tagResize:
				return zero, false, opRedirect
			case tagTombstone:
				idx = (idx + 1) & a.mask
				continue outer
			case tagLive:
				if !(oldC.fingerprint == fp && oldC.box.Key == key) {
					idx = (idx + 1) & a.mask
					continue outer
				}
				if !a.cells[idx].CompareAndSwap(oldC, tomb) {
					continue // contended; re-read same cell
				}
				oldVal := oldC.box.Value
				a.retireBox(oldC.box)
				a.length.Add(hash, -1)
				return oldVal, true, opOK
			}
		}
	}
	return zero, false, opOK
}

// removeIf removes key only if pred holds for its current value. Because
// the lock-free core has no mutex to hold across the check, the CAS
// itself is the linearization point: pred is evaluated against the value
// read by this goroutine, and the removal only commits if no other
// goroutine raced ahead of us for the same cell.
func (a *BucketArray[K, V]) removeIf(hash uint64, fp uint16, key K, pred func(V) bool) (old V, removed bool, status opStatus) {
	var zero V
	idx := hash & a.mask
	tomb := newTombstoneCell[K, V]()

outer:
	for i := uint64(0); i <= a.mask; i++ {
		for {
			c := a.cells[idx].Load()
			t := tagOf(c)
			switch t {
			case tagNull:
				return zero, false, opOK
			case tagResize:
				return zero, false, opRedirect
			case tagLive:
				if c.fingerprint != fp || c.box.Key != key {
					idx = (idx + 1) & a.mask
					continue outer
				}
				if !pred(c.box.Value) {
					return zero, false, opOK
				}
				if !a.cells[idx].CompareAndSwap(c, tomb) {
					continue // current value re-read and re-checked against pred next iteration
				}
				oldVal := c.box.Value
				a.retireBox(c.box)
				a.length.Add(hash, -1)
				return oldVal, true, opOK
			default:
				idx = (idx + 1) & a.mask
				continue outer
			}
		}
	}
	return zero, false, opOK
}

// retain walks every live cell in this array's current extent and
// tombstones those for which pred returns false. Unlike get/upsert/remove,
// retain does not redirect on a resize-frozen cell: it simply skips it,
// since any entries a concurrent resize has already migrated will also be
// visited (and can be retained/dropped) on the successor array by Root.
func (a *BucketArray[K, V]) retain(pred func(K, V) bool) {
	for idx := range a.cells {
		c := a.cells[idx].Load()
		if tagOf(c) != tagLive {
			continue
		}
		if pred(c.box.Key, c.box.Value) {
			continue
		}
		tomb := newTombstoneCell[K, V]()
		if a.cells[idx].CompareAndSwap(c, tomb) {
			a.retireBox(c.box)
			a.length.Add(c.box.Hash, -1)
		}
	}
}

// iterate calls fn for every live cell in this array at the time of the
// call, in slot order. Per spec.md §4.6 this is a weakly consistent view:
// concurrent writers may add or remove entries mid-iteration without it
// being observed as an error, and an in-flight resize's not-yet-migrated
// tail is simply whatever this array still shows for those slots.
func (a *BucketArray[K, V]) iterate(fn func(K, V) bool) {
	for idx := range a.cells {
		c := a.cells[idx].Load()
		if tagOf(c) == tagLive {
			if !fn(c.box.Key, c.box.Value) {
				return
			}
		}
	}
}

// installDuringMigration places an already-AddRef'd box into this array at
// its natural probe position. Only a ResizeCoordinator calls this, and
// only before the array has been published: every slot here still starts
// at tagNull, so a plain linear probe to the first empty cell is enough —
// no key can already be present.
func (a *BucketArray[K, V]) installDuringMigration(box *entrybox.Box[K, V], fp uint16) {
	idx := box.Hash & a.mask
	newC := &cell[K, V]{tag: tagLive, fingerprint: fp, box: box}
	for {
		c := a.cells[idx].Load()
		if tagOf(c) == tagNull {
			if a.cells[idx].CompareAndSwap(c, newC) {
				a.cellsRemaining.Add(-1)
				return
			}
			continue
		}
		idx = (idx + 1) & a.mask
	}
}

// fingerprintOf is a small convenience wrapper kept here (rather than in
// internal/hashing) since only the lock-free core needs the fingerprint
// alongside the raw hash at every call site.
func fingerprintOf(hash uint64) uint16 {
	return hashing.Fingerprint16(hash)
}

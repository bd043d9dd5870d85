package lockfree

import (
	"testing"

	"github.com/Voskan/concurrentmap/internal/ebr"
	"github.com/Voskan/concurrentmap/internal/entrybox"
)

func newTestArray(t *testing.T, capacity uint64) (*BucketArray[uint64, int], *ebr.Engine) {
	t.Helper()
	engine := ebr.NewEngine()
	length := NewFastCounter()
	pool := entrybox.NewPool[uint64, int]()
	arr := newBucketArray[uint64, int](capacity, length, pool, engine, func(*BucketArray[uint64, int]) {})
	return arr, engine
}

func pinned(t *testing.T, e *ebr.Engine, f func()) {
	t.Helper()
	p := e.NewParticipant()
	defer p.Close()
	pin := p.Enter()
	defer pin.Exit()
	f()
}

func TestBucketArrayUpsertGetRoundTrip(t *testing.T) {
	arr, e := newTestArray(t, 16)
	pinned(t, e, func() {
		old, existed, status := arr.upsert(1, fingerprintOf(1), 1, 100)
		if existed || old != 0 || status != opOK {
			t.Fatalf("first upsert: got (%d, %v, %v)", old, existed, status)
		}
		v, ok, status := arr.get(1, fingerprintOf(1), 1)
		if !ok || v != 100 || status != opOK {
			t.Fatalf("get after upsert: got (%d, %v, %v)", v, ok, status)
		}
	})
}

func TestBucketArrayUpsertOverwriteReturnsOldAndRetires(t *testing.T) {
	arr, e := newTestArray(t, 16)
	pinned(t, e, func() {
		arr.upsert(1, fingerprintOf(1), 1, 100)
		old, existed, _ := arr.upsert(1, fingerprintOf(1), 1, 200)
		if !existed || old != 100 {
			t.Fatalf("overwrite upsert: got (%d, %v), want (100, true)", old, existed)
		}
		v, _, _ := arr.get(1, fingerprintOf(1), 1)
		if v != 200 {
			t.Fatalf("get after overwrite = %d, want 200", v)
		}
	})
}

func TestBucketArrayRemoveThenGetMiss(t *testing.T) {
	arr, e := newTestArray(t, 16)
	pinned(t, e, func() {
		arr.upsert(1, fingerprintOf(1), 1, 100)
		old, existed, status := arr.remove(1, fingerprintOf(1), 1)
		if !existed || old != 100 || status != opOK {
			t.Fatalf("remove: got (%d, %v, %v)", old, existed, status)
		}
		_, ok, _ := arr.get(1, fingerprintOf(1), 1)
		if ok {
			t.Fatal("get found key after remove")
		}
	})
}

func TestBucketArrayTombstoneReuseDoesNotDecrementCellsRemainingTwice(t *testing.T) {
	arr, e := newTestArray(t, 16)
	before := arr.cellsRemaining.Load()
	pinned(t, e, func() {
		arr.upsert(1, fingerprintOf(1), 1, 100)
		afterInsert := arr.cellsRemaining.Load()
		if afterInsert != before-1 {
			t.Fatalf("cellsRemaining after first insert = %d, want %d", afterInsert, before-1)
		}
		arr.remove(1, fingerprintOf(1), 1)
		// Reinsert the same key: it lands on the tombstone left behind by
		// remove, which must NOT decrement cellsRemaining again.
		arr.upsert(1, fingerprintOf(1), 1, 200)
		afterReinsert := arr.cellsRemaining.Load()
		if afterReinsert != afterInsert {
			t.Fatalf("cellsRemaining after tombstone reuse = %d, want %d (unchanged)", afterReinsert, afterInsert)
		}
	})
}

func TestBucketArrayRemoveIfHonorsPredicate(t *testing.T) {
	arr, e := newTestArray(t, 16)
	pinned(t, e, func() {
		arr.upsert(1, fingerprintOf(1), 1, 100)
		if _, removed, _ := arr.removeIf(1, fingerprintOf(1), 1, func(v int) bool { return v > 1000 }); removed {
			t.Fatal("removeIf removed despite false predicate")
		}
		if _, ok, _ := arr.get(1, fingerprintOf(1), 1); !ok {
			t.Fatal("key missing after a false-predicate removeIf")
		}
		old, removed, _ := arr.removeIf(1, fingerprintOf(1), 1, func(v int) bool { return v == 100 })
		if !removed || old != 100 {
			t.Fatalf("removeIf: got (%d, %v), want (100, true)", old, removed)
		}
	})
}

func TestBucketArrayAlterInsertsUpdatesAndDeletes(t *testing.T) {
	arr, e := newTestArray(t, 16)
	pinned(t, e, func() {
		arr.alter(1, fingerprintOf(1), 1, func(v int, ok bool) (int, bool) {
			if ok {
				t.Fatal("absent key saw ok=true")
			}
			return 5, true
		})
		v, ok, _ := arr.get(1, fingerprintOf(1), 1)
		if !ok || v != 5 {
			t.Fatalf("get after alter insert: got (%d, %v), want (5, true)", v, ok)
		}

		arr.alter(1, fingerprintOf(1), 1, func(v int, ok bool) (int, bool) {
			return v + 1, true
		})
		v, _, _ = arr.get(1, fingerprintOf(1), 1)
		if v != 6 {
			t.Fatalf("get after alter update = %d, want 6", v)
		}

		arr.alter(1, fingerprintOf(1), 1, func(v int, ok bool) (int, bool) {
			return 0, false
		})
		if _, ok, _ = arr.get(1, fingerprintOf(1), 1); ok {
			t.Fatal("key survived alter(keep=false)")
		}
	})
}

func TestBucketArrayRetainDropsNonMatching(t *testing.T) {
	arr, e := newTestArray(t, 32)
	pinned(t, e, func() {
		for i := uint64(0); i < 10; i++ {
			arr.upsert(i, fingerprintOf(i), i, int(i))
		}
		arr.retain(func(k uint64, v int) bool { return k%2 == 0 })
		for i := uint64(0); i < 10; i++ {
			_, ok, _ := arr.get(i, fingerprintOf(i), i)
			if i%2 == 0 && !ok {
				t.Fatalf("even key %d dropped by retain", i)
			}
			if i%2 != 0 && ok {
				t.Fatalf("odd key %d survived retain", i)
			}
		}
	})
}

func TestBucketArrayIterateVisitsAllLive(t *testing.T) {
	arr, e := newTestArray(t, 32)
	pinned(t, e, func() {
		for i := uint64(0); i < 10; i++ {
			arr.upsert(i, fingerprintOf(i), i, int(i))
		}
		seen := map[uint64]bool{}
		arr.iterate(func(k uint64, v int) bool {
			seen[k] = true
			return true
		})
		if len(seen) != 10 {
			t.Fatalf("iterate saw %d entries, want 10", len(seen))
		}
	})
}

func TestBucketArrayGetEmptyIsMiss(t *testing.T) {
	arr, e := newTestArray(t, 16)
	pinned(t, e, func() {
		_, ok, status := arr.get(1, fingerprintOf(1), 1)
		if ok || status != opOK {
			t.Fatalf("get on empty array: got (ok=%v, status=%v), want (false, opOK)", ok, status)
		}
	})
}

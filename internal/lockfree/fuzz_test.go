//go:build fuzz

package lockfree

import "testing"

// FuzzBucketArrayUpsertRemoveGet drives a single arbitrary (op, key,
// value) step through a BucketArray and a parallel plain Go map oracle,
// failing on the first disagreement — the idiomatic stand-in for Rust's
// arbitrary-driven property fuzzing (SPEC_FULL.md's `arbitrary` feature
// toggle) applied to the lock-free core's cell state machine.
func FuzzBucketArrayUpsertRemoveGet(f *testing.F) {
	f.Add(uint8(0), uint64(1), 10)
	f.Add(uint8(1), uint64(1), 0)
	f.Add(uint8(2), uint64(7), 0)

	f.Fuzz(func(t *testing.T, op uint8, key uint64, value int) {
		arr, e := newTestArray(t, 16)
		oracle := make(map[uint64]int)

		pinned(t, e, func() {
			switch op % 3 {
			case 0:
				old, existed, status := arr.upsert(key, fingerprintOf(key), key, value)
				if status != opOK {
					return // table full; not a correctness failure
				}
				wantOld, wantExisted := oracle[key]
				if existed != wantExisted || (existed && old != wantOld) {
					t.Fatalf("upsert(%d,%d): got (%d,%v), want (%d,%v)", key, value, old, existed, wantOld, wantExisted)
				}
				oracle[key] = value
			case 1:
				old, existed, _ := arr.remove(key, fingerprintOf(key), key)
				wantOld, wantExisted := oracle[key]
				if existed != wantExisted || (existed && old != wantOld) {
					t.Fatalf("remove(%d): got (%d,%v), want (%d,%v)", key, old, existed, wantOld, wantExisted)
				}
				delete(oracle, key)
			case 2:
				got, ok, _ := arr.get(key, fingerprintOf(key), key)
				want, wantOK := oracle[key]
				if ok != wantOK || (ok && got != want) {
					t.Fatalf("get(%d): got (%d,%v), want (%d,%v)", key, got, ok, want, wantOK)
				}
			}
		})
	})
}

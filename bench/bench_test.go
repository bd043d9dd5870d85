// Package bench provides reproducible micro‑benchmarks for concurrentmap.
// Run via:  go test ./bench -bench=. -benchmem -cpu 1,4,16
//
// The benchmarks intentionally use a *single* key/value shape so results are
// comparable across versions:
//   • Key   – uint64  (cheap hashing, fits in register)
//   • Value – 64‑byte struct (large enough to matter, small enough for cache)
//
// We measure:
//   1. Insert         – write‑only workload, sharded core
//   2. Get            – read‑only workload (after warm‑up), sharded core
//   3. GetParallel    – highly concurrent reads (b.RunParallel), sharded core
//   4. LockFreeInsert / LockFreeGet – the same two workloads on the
//      alternative lock-free core, for side-by-side comparison
//   5. RistrettoGet / LRUGet – the same read workload against two popular
//      off-the-shelf concurrent caches, for an external baseline
//
// Results are printed in ns/op + alloc/op so CI can diff via benchstat.
//
// NOTE: Unit tests live elsewhere; this file is *only* for performance.
//
// © 2025 concurrentmap authors. MIT License.

package bench

import (
	"math/rand"
	"runtime"
	"testing"

	"github.com/dgraph-io/ristretto/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	concurrentmap "github.com/Voskan/concurrentmap/pkg"
	"github.com/Voskan/concurrentmap/pkg/lockfree"
)

/* -------------------------------------------------------------------------
   Test harness helpers
   ------------------------------------------------------------------------- */

type value64 struct {
	_ [64]byte
}

const (
	shards = 16
	keys   = 1 << 20 // 1M keys for dataset
)

func newTestMap() *concurrentmap.Map[uint64, value64] {
	m, err := concurrentmap.NewWithOptions[uint64, value64](concurrentmap.WithShardCount[uint64, value64](shards))
	if err != nil {
		panic(err)
	}
	return m
}

func newTestLockFreeMap() *lockfree.Map[uint64, value64] {
	return lockfree.WithCapacity[uint64, value64](keys)
}

// global dataset reused across benches to avoid reallocating large slices.
var ds = func() []uint64 {
	arr := make([]uint64, keys)
	for i := range arr {
		arr[i] = rand.Uint64()
	}
	return arr
}()

/* -------------------------------------------------------------------------
   Sharded core benchmarks
   ------------------------------------------------------------------------- */

func BenchmarkInsert(b *testing.B) {
	m := newTestMap()
	val := value64{}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := ds[i&(keys-1)]
		m.Insert(key, val)
	}
}

func BenchmarkGet(b *testing.B) {
	m := newTestMap()
	val := value64{}
	for _, k := range ds {
		m.Insert(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		m.Get(k)
	}
}

func BenchmarkGetParallel(b *testing.B) {
	m := newTestMap()
	val := value64{}
	for _, k := range ds {
		m.Insert(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		idx := rand.Intn(keys)
		for pb.Next() {
			idx = (idx + 1) & (keys - 1)
			m.Get(ds[idx])
		}
	})
}

/* -------------------------------------------------------------------------
   Lock-free core benchmarks
   ------------------------------------------------------------------------- */

func BenchmarkLockFreeInsert(b *testing.B) {
	m := newTestLockFreeMap()
	val := value64{}
	p := m.NewParticipant()
	defer p.Close()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := ds[i&(keys-1)]
		m.Insert(key, val)
	}
}

func BenchmarkLockFreeGet(b *testing.B) {
	m := newTestLockFreeMap()
	val := value64{}
	for _, k := range ds {
		m.Insert(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		m.Get(k)
	}
}

/* -------------------------------------------------------------------------
   External baseline comparisons
   ------------------------------------------------------------------------- */

func BenchmarkRistrettoGet(b *testing.B) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, value64]{
		NumCounters: int64(keys) * 10,
		MaxCost:     int64(keys),
		BufferItems: 64,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer cache.Close()
	val := value64{}
	for _, k := range ds {
		cache.Set(k, val, 1)
	}
	cache.Wait()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		cache.Get(k)
	}
}

func BenchmarkLRUGet(b *testing.B) {
	cache, err := lru.New[uint64, value64](keys)
	if err != nil {
		b.Fatal(err)
	}
	val := value64{}
	for _, k := range ds {
		cache.Add(k, val)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := ds[i&(keys-1)]
		cache.Get(k)
	}
}

/* -------------------------------------------------------------------------
   Utility – ensure deterministic Rand for repeatability
   ------------------------------------------------------------------------- */

func init() {
	rand.Seed(42)
	runtime.GOMAXPROCS(runtime.NumCPU())
}

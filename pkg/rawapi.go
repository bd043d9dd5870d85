//go:build rawapi

package concurrentmap

// rawapi.go exposes the shard vector directly, gated behind the rawapi
// build tag exactly as spec.md's `raw-api` feature toggle describes and
// the teacher gates its Badger-specific L2 behavior behind its own build
// tag. Intended for tooling (benchmarks, the CLI inspector) that needs
// to reach into per-shard state the stable API deliberately hides.

import "github.com/Voskan/concurrentmap/internal/shard"

// RawShards exposes the underlying shard slice. Holding onto it past the
// Map's lifetime, or calling shard methods without understanding their
// locking contract, voids every concurrency guarantee this package makes.
func (m *Map[K, V]) RawShards() []*shard.Shard[K, V] {
	return m.shards
}

// RawShardCount reports the number of shards without allocating.
func (m *Map[K, V]) RawShardCount() int {
	return len(m.shards)
}

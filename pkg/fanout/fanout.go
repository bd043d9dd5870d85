//go:build fan

// Package fanout provides parallel bulk operations over a
// concurrentmap.Map, fanning work out across its shards concurrently.
// This is the closest idiomatic Go analogue to Rust's rayon parallel
// iterators (spec.md's `rayon` feature toggle): each shard is
// independently locked already, so processing shards concurrently via
// golang.org/x/sync/errgroup is both safe and embarrassingly parallel.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Voskan/concurrentmap/internal/shard"
	concurrentmap "github.com/Voskan/concurrentmap/pkg"
)

// ParallelInsert inserts every (key, value) pair in entries into m,
// splitting the batch into numWorkers goroutines. Order of insertion
// across workers is unspecified, matching spec.md's "multi-key
// operations... are not atomic across shards."
func ParallelInsert[K comparable, V any](ctx context.Context, m *concurrentmap.Map[K, V], entries map[K]V, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	keys := make([]K, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	g, _ := errgroup.WithContext(ctx)
	chunk := (len(keys) + numWorkers - 1) / numWorkers
	if chunk == 0 {
		return nil
	}
	for start := 0; start < len(keys); start += chunk {
		end := start + chunk
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]
		g.Go(func() error {
			for _, k := range batch {
				m.Insert(k, entries[k])
			}
			return nil
		})
	}
	return g.Wait()
}

// ParallelRetain applies pred across every shard in shards concurrently
// (a shard vector such as the rawapi build tag's RawShards returns), since
// retain must run inside each shard's own exclusive lock.
func ParallelRetain[K comparable, V any](ctx context.Context, shards []*shard.Shard[K, V], pred func(K, V) bool) error {
	g, _ := errgroup.WithContext(ctx)
	for _, sh := range shards {
		sh := sh
		g.Go(func() error {
			sh.Retain(pred)
			return nil
		})
	}
	return g.Wait()
}

// ParallelIter walks every shard in shards concurrently, calling fn for each
// (key, value) pair observed. fn must be safe for concurrent use from
// multiple shard-walking goroutines at once.
func ParallelIter[K comparable, V any](ctx context.Context, shards []*shard.Shard[K, V], fn func(K, V)) error {
	g, _ := errgroup.WithContext(ctx)
	for _, sh := range shards {
		sh := sh
		g.Go(func() error {
			sh.Range(func(k K, v V) bool {
				fn(k, v)
				return true
			})
			return nil
		})
	}
	return g.Wait()
}

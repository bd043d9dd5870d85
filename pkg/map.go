// Package concurrentmap implements a concurrent associative container
// with two interchangeable cores: a lock-based sharded map (the default,
// authoritative engine) and an alternative lock-free engine available
// through the pkg/lockfree package. Generalized from the teacher's sharded
// Cache[K,V], replacing its CLOCK-Pro/TTL/arena machinery with a plain
// upsert/remove/iterate contract and no eviction policy.
package concurrentmap

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Voskan/concurrentmap/internal/hashing"
	"github.com/Voskan/concurrentmap/internal/shard"
)

// Map is a concurrent hash map from K to V, backed by a fixed number of
// independently-locked shards (spec.md §4.5).
type Map[K comparable, V any] struct {
	shards  []*shard.Shard[K, V]
	mask    uint64
	bits    uint8
	hasher  hashing.Builder[K]
	logger  *zap.Logger
	metrics metricsSink
}

// New constructs a Map with default capacity, hasher, and shard count.
func New[K comparable, V any]() (*Map[K, V], error) {
	return newMap[K, V](nil)
}

// WithCapacity constructs a Map that pre-sizes its shards to hold at
// least capacity entries without an initial resize.
func WithCapacity[K comparable, V any](capacity int) (*Map[K, V], error) {
	return newMap[K, V]([]Option[K, V]{WithCapacityOption[K, V](capacity)})
}

// NewWithHasher constructs a Map using a caller-supplied hash builder
// instead of the default hash/maphash-based one.
func NewWithHasher[K comparable, V any](h hashing.Builder[K]) (*Map[K, V], error) {
	return newMap[K, V]([]Option[K, V]{WithHasher[K, V](h)})
}

// NewWithCapacityAndHasher combines WithCapacity and WithHasher.
func NewWithCapacityAndHasher[K comparable, V any](capacity int, h hashing.Builder[K]) (*Map[K, V], error) {
	return newMap[K, V]([]Option[K, V]{WithCapacityOption[K, V](capacity), WithHasher[K, V](h)})
}

// NewWithOptions constructs a Map from an arbitrary option list, the
// escape hatch for WithLogger/WithMetrics/WithShardCount/WithBuilder.
func NewWithOptions[K comparable, V any](opts ...Option[K, V]) (*Map[K, V], error) {
	return newMap[K, V](opts)
}

func newMap[K comparable, V any](opts []Option[K, V]) (*Map[K, V], error) {
	cfg := defaultConfig[K, V]()
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}
	bits := hashing.ShardBits(cfg.shardCount)
	perShardCap := 0
	if cfg.capacity > 0 {
		perShardCap = (cfg.capacity + cfg.shardCount - 1) / cfg.shardCount
		// Leave room for the tables' 0.75 load factor.
		perShardCap = (perShardCap*4 + 2) / 3
	}
	shards := make([]*shard.Shard[K, V], cfg.shardCount)
	for i := range shards {
		shards[i] = shard.New[K, V](perShardCap)
	}
	return &Map[K, V]{
		shards:  shards,
		mask:    uint64(cfg.shardCount - 1),
		bits:    bits,
		hasher:  cfg.hasher,
		logger:  cfg.logger,
		metrics: newMetricsSink(cfg.registry),
	}, nil
}

func (m *Map[K, V]) hashOf(key K) uint64 { return m.hasher.Hash(key) }

func (m *Map[K, V]) shardFor(hash uint64) (*shard.Shard[K, V], uint8) {
	idx := hashing.ShardIndex(hash, m.bits)
	return m.shards[idx], uint8(idx)
}

// Insert upserts key -> value, returning the previously stored value (if
// any) and whether the key already existed.
func (m *Map[K, V]) Insert(key K, value V) (old V, existed bool) {
	hash := m.hashOf(key)
	sh, idx := m.shardFor(hash)
	before := sh.Cap()
	old, existed = sh.Insert(hash, key, value)
	m.metrics.incInsert(idx)
	m.observeResize(sh, before)
	return old, existed
}

// Remove deletes key if present, returning the removed value.
func (m *Map[K, V]) Remove(key K) (old V, existed bool) {
	hash := m.hashOf(key)
	sh, idx := m.shardFor(hash)
	old, existed = sh.Remove(hash, key)
	if existed {
		m.metrics.incRemove(idx)
	}
	return old, existed
}

// RemoveIf deletes key only if pred(currentValue) holds.
func (m *Map[K, V]) RemoveIf(key K, pred func(V) bool) (old V, removed bool) {
	hash := m.hashOf(key)
	sh, idx := m.shardFor(hash)
	old, removed = sh.RemoveIf(hash, key, pred)
	if removed {
		m.metrics.incRemove(idx)
	}
	return old, removed
}

// Get returns the value stored for key and whether it was found.
func (m *Map[K, V]) Get(key K) (V, bool) {
	hash := m.hashOf(key)
	sh, idx := m.shardFor(hash)
	v, ok := sh.Get(hash, key)
	if ok {
		m.metrics.incHit(idx)
	} else {
		m.metrics.incMiss(idx)
	}
	return v, ok
}

// ContainsKey reports key's presence without the metrics cost of
// distinguishing hit from miss twice.
func (m *Map[K, V]) ContainsKey(key K) bool {
	hash := m.hashOf(key)
	sh, _ := m.shardFor(hash)
	return sh.Contains(hash, key)
}

// GetGuarded returns a ReadGuard bundling key's value with the shard read
// lock held at the moment it was read, or ok=false if key is absent. The
// caller MUST call guard.Release() (or Close()) exactly once.
func (m *Map[K, V]) GetGuarded(key K) (guard *ReadGuard[K, V], ok bool) {
	hash := m.hashOf(key)
	sh, _ := m.shardFor(hash)
	sh.RLock()
	v, exists := sh.GetLocked(hash, key)
	if !exists {
		sh.RUnlock()
		return nil, false
	}
	return &ReadGuard[K, V]{shard: sh, key: key, value: v}, true
}

// GetMut returns a WriteGuard bundling an exclusive lock on key's shard
// with mutable access to its value, or ok=false if key is absent. The
// caller MUST call guard.Release() (or Close()) exactly once.
func (m *Map[K, V]) GetMut(key K) (guard *WriteGuard[K, V], ok bool) {
	hash := m.hashOf(key)
	sh, _ := m.shardFor(hash)
	sh.Lock()
	v, exists := sh.GetLocked(hash, key)
	if !exists {
		sh.Unlock()
		return nil, false
	}
	return &WriteGuard[K, V]{shard: sh, hash: hash, key: key, value: v}, true
}

// Alter applies f to key's current value (zero value, ok=false if
// absent), storing the result unless f requests deletion via keep=false.
func (m *Map[K, V]) Alter(key K, f func(v V, ok bool) (newV V, keep bool)) {
	hash := m.hashOf(key)
	sh, idx := m.shardFor(hash)
	stored, removed := sh.Alter(hash, key, f)
	switch {
	case stored:
		m.metrics.incInsert(idx)
	case removed:
		m.metrics.incRemove(idx)
	}
}

// AlterAll applies f to every (key, value) pair across all shards,
// replacing each value with f's result or removing the entry if f
// returns keep=false.
func (m *Map[K, V]) AlterAll(f func(key K, value V) (newV V, keep bool)) {
	for _, sh := range m.shards {
		sh.RangeMut(func(k K, v *V) bool {
			newV, keep := f(k, *v)
			if keep {
				*v = newV
			}
			return keep
		})
	}
}

// Swap exchanges the values stored at k1 and k2, locking both shards in a
// fixed address order to avoid deadlock against a concurrent Swap on the
// same pair. Returns ErrInvalidKey (wrapping whichever key is missing) if
// either side is absent; SPEC_FULL.md §7's enrichment of spec.md's error
// taxonomy.
func (m *Map[K, V]) Swap(k1, k2 K) error {
	h1, h2 := m.hashOf(k1), m.hashOf(k2)
	s1, _ := m.shardFor(h1)
	s2, _ := m.shardFor(h2)

	if s1 == s2 {
		s1.Lock()
		defer s1.Unlock()
		v1, ok1 := s1.GetLocked(h1, k1)
		if !ok1 {
			return wrapInvalidKey(k1)
		}
		v2, ok2 := s1.GetLocked(h2, k2)
		if !ok2 {
			return wrapInvalidKey(k2)
		}
		s1.PutLocked(h1, k1, v2)
		s1.PutLocked(h2, k2, v1)
		return nil
	}

	first, second := s1, s2
	if shardAddrLess(s2, s1) {
		first, second = s2, s1
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	v1, ok1 := s1.GetLocked(h1, k1)
	if !ok1 {
		return wrapInvalidKey(k1)
	}
	v2, ok2 := s2.GetLocked(h2, k2)
	if !ok2 {
		return wrapInvalidKey(k2)
	}
	s1.PutLocked(h1, k1, v2)
	s2.PutLocked(h2, k2, v1)
	return nil
}

// Retain keeps only entries for which pred returns true, across every
// shard independently (not an atomic whole-map snapshot).
func (m *Map[K, V]) Retain(pred func(key K, value V) bool) {
	for _, sh := range m.shards {
		sh.Retain(pred)
	}
}

// Clear empties every shard.
func (m *Map[K, V]) Clear() {
	for _, sh := range m.shards {
		sh.Clear()
	}
}

// Len returns the (weakly consistent) total number of live entries.
func (m *Map[K, V]) Len() int {
	total := 0
	for _, sh := range m.shards {
		total += sh.Len()
	}
	return total
}

// Capacity returns the (weakly consistent) total number of slots backing
// all shards.
func (m *Map[K, V]) Capacity() int {
	total := 0
	for _, sh := range m.shards {
		total += sh.Cap()
	}
	return total
}

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V]) IsEmpty() bool { return m.Len() == 0 }

// ShrinkToFit reallocates every shard tightly around its current entry
// count.
func (m *Map[K, V]) ShrinkToFit() {
	for _, sh := range m.shards {
		sh.ShrinkToFit()
	}
}

// Iter calls fn for every (key, value) pair across all shards in shard
// order, stopping early if fn returns false. Per spec.md §4.5, distinct
// shards are locked independently, so this is not a whole-map snapshot.
func (m *Map[K, V]) Iter(fn func(key K, value V) bool) {
	for _, sh := range m.shards {
		cont := true
		sh.Range(func(k K, v V) bool {
			if !fn(k, v) {
				cont = false
				return false
			}
			return true
		})
		if !cont {
			return
		}
	}
}

// IterMut calls fn with a mutable pointer to every value across all
// shards, stopping early if fn returns false; fn returning keep=false via
// its own bookkeeping is not supported here (use AlterAll to also delete
// while iterating).
func (m *Map[K, V]) IterMut(fn func(key K, value *V) bool) {
	for _, sh := range m.shards {
		cont := true
		sh.RangeMut(func(k K, v *V) bool {
			if !fn(k, v) {
				cont = false
				return true // keep the entry; caller only wanted early exit
			}
			return true
		})
		if !cont {
			return
		}
	}
}

func (m *Map[K, V]) observeResize(sh *shard.Shard[K, V], before int) {
	if after := sh.Cap(); after != before {
		m.metrics.incResize()
		m.logger.Debug("concurrentmap: shard resized", zap.Int("from", before), zap.Int("to", after))
	}
}

func shardAddrLess[K comparable, V any](a, b *shard.Shard[K, V]) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}

func wrapInvalidKey[K comparable](key K) error {
	return fmt.Errorf("%w: %v", ErrInvalidKey, key)
}

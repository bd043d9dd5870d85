package concurrentmap

// config.go defines the functional options accepted by NewWithOptions (and
// used internally by WithCapacity/NewWithHasher/NewWithCapacityAndHasher).
// Generalized from the teacher's
// pkg/config.go (same functional-option shape, same default-then-apply-
// then-validate flow) with the cache-specific knobs (WeightFn,
// EjectCallback, TTL) dropped since this is a general map with no
// eviction policy, and capacity/hasher/shard-count/logger/metrics knobs
// added per SPEC_FULL.md §6.4.

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Voskan/concurrentmap/internal/hashing"
)

// Option configures a Map at construction time.
type Option[K comparable, V any] func(*config[K, V])

type config[K comparable, V any] struct {
	capacity   int
	shardCount int
	hasher     hashing.Builder[K]
	logger     *zap.Logger
	registry   *prometheus.Registry
}

// defaultShardCount mirrors spec.md §4.5's rationale: 4x the core count,
// rounded up to a power of two, balances lock contention against
// per-shard overhead for the common case.
func defaultShardCount() int {
	n := runtime.NumCPU() * 4
	return int(hashing.NextPowerOfTwo(uint64(maxInt(n, 1))))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func defaultConfig[K comparable, V any]() *config[K, V] {
	return &config[K, V]{
		capacity:   0,
		shardCount: defaultShardCount(),
		hasher:     hashing.NewMapHashBuilder[K](),
		logger:     zap.NewNop(),
		registry:   nil,
	}
}

// WithCapacityOption reserves capacity entries' worth of slots up front,
// split evenly across shards.
func WithCapacityOption[K comparable, V any](capacity int) Option[K, V] {
	return func(c *config[K, V]) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithHasher overrides the default hash/maphash-based builder.
func WithHasher[K comparable, V any](h hashing.Builder[K]) Option[K, V] {
	return func(c *config[K, V]) {
		if h != nil {
			c.hasher = h
		}
	}
}

// WithBuilder is an alias for WithHasher: both take the same
// internal/hashing.Builder (SPEC_FULL.md §6.4).
func WithBuilder[K comparable, V any](h hashing.Builder[K]) Option[K, V] {
	return WithHasher[K, V](h)
}

// WithShardCount overrides the default shard count. n is rounded up to
// the next power of two.
func WithShardCount[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		if n > 0 {
			c.shardCount = int(hashing.NextPowerOfTwo(uint64(n)))
		}
	}
}

// WithLogger plugs an external zap.Logger. The only event logged is a
// Debug message when an Insert grows a shard's table; nothing else is
// logged.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection. Passing nil disables
// metrics (the default).
func WithMetrics[K comparable, V any](reg *prometheus.Registry) Option[K, V] {
	return func(c *config[K, V]) {
		c.registry = reg
	}
}

func applyOptions[K comparable, V any](cfg *config[K, V], opts []Option[K, V]) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.shardCount <= 0 || (cfg.shardCount&(cfg.shardCount-1)) != 0 {
		return ErrInvalidShardCount
	}
	return nil
}

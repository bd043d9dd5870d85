package concurrentmap

// errors.go collects the sentinel errors the map's operations return when
// they need to hand the caller a reason rather than a plain bool/zero
// value, per spec.md §7's error taxonomy.

import "errors"

// ErrInvalidKey is returned by operations that need a reason when a key
// does not designate a usable entry — currently Swap, when either side of
// the pair is absent.
var ErrInvalidKey = errors.New("concurrentmap: invalid key")

// ErrInvalidShardCount is returned by the Map constructors when the
// configured shard count is zero or not a power of two.
var ErrInvalidShardCount = errors.New("concurrentmap: shard count must be a power of two greater than zero")

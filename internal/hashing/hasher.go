package hashing

// hasher.go implements C1: the key hasher and shard/bucket selector shared
// by the sharded core (internal/shard) and the lock-free core
// (internal/lockfree).
//
// Grounded on the teacher's shard.go hash() method (per-shard maphash.Seed,
// type-switch to avoid reflection for string/[]byte/scalar keys) and on
// original_source/src/hasher.rs (ShardHasher, the identity pass-through of a
// pre-hashed u64, kept internal-only per the Open Question resolution
// recorded in SPEC_FULL.md §4.1).

import (
	"hash/maphash"
)

// Builder hashes keys of type K to 64-bit values. The default implementation wraps
// hash/maphash with a process-random seed (DoS-resistant); callers may
// supply their own to get deterministic hashing for tests or to plug in a
// different algorithm entirely.
type Builder[K comparable] interface {
	Hash(key K) uint64
}

// MapHashBuilder is the default Builder: one maphash.Seed per instance,
// shared by all callers of Hash. hash/maphash already randomizes the seed
// per call to MakeSeed, which is what gives the default builder its
// DoS-resistance.
type MapHashBuilder[K comparable] struct {
	seed maphash.Seed
}

// NewMapHashBuilder constructs the default hash builder.
func NewMapHashBuilder[K comparable]() *MapHashBuilder[K] {
	return &MapHashBuilder[K]{seed: maphash.MakeSeed()}
}

// Hash implements Builder. It special-cases string and []byte keys to avoid
// going through reflection, and falls back to hashing the raw bytes of the
// key's in-memory representation for scalar/struct keys.
func (b *MapHashBuilder[K]) Hash(key K) uint64 {
	var h maphash.Hash
	h.SetSeed(b.seed)
	switch k := any(key).(type) {
	case string:
		// WriteString on a maphash.Hash does not retain the string, so no
		// copy is needed here.
		h.WriteString(k)
	case []byte:
		h.Write(k)
	default:
		h.Write(ByteSliceFrom(addressOf(&key), sizeOf(key)))
	}
	return h.Sum64()
}

// PreHashed is the internal-only "ShardHasher" analogue: a Builder[uint64]
// that treats the key as an already-computed hash and returns it unchanged.
// The resize coordinator does not need it — a migrated box carries its own
// Hash on the entrybox.Box, so BucketArray.installDuringMigration re-probes
// directly off that stored value and never calls back into a Builder at
// all. PreHashed exists for constructing a Root[uint64, V] directly over
// pre-hashed uint64 keys (see internal/lockfree's test helpers), letting a
// caller that already has a well-distributed 64-bit key skip a redundant
// hashing pass. It is never exported from the public API surface (pkg).
type PreHashed struct{}

// Hash returns h unchanged.
func (PreHashed) Hash(h uint64) uint64 { return h }

/* -------------------------------------------------------------------------
   Shard / bucket selection arithmetic
   ------------------------------------------------------------------------- */

// ShardIndex projects a 64-bit hash onto [0, 1<<shardBits) by shifting the
// hash left by 7 (discarding its top 7 bits) and keeping the top shardBits
// bits of the result, while the inner open-addressed tables start probing
// from the low bits of the same hash.
func ShardIndex(hash uint64, shardBits uint8) int {
	if shardBits == 0 {
		return 0
	}
	shift := 64 - shardBits
	return int((hash << 7) >> shift)
}

// Fingerprint16 derives a 16-bit fast-reject fingerprint from the full hash
// by xor-folding the high and low halves twice and masking to 16 bits.
// Equality of fingerprints is necessary, not sufficient, for key equality.
func Fingerprint16(hash uint64) uint16 {
	folded := uint32(hash) ^ uint32(hash>>32)
	return uint16(folded) ^ uint16(folded>>16)
}

// ShardBits returns ceil(log2(n)) for a shard count that the caller has
// already rounded up to a power of two.
func ShardBits(shardCount int) uint8 {
	var bits uint8
	for (1 << bits) < shardCount {
		bits++
	}
	return bits
}

package entrybox

import "sync"

// pool.go is the concrete Go-idiomatic reason the lock-free core still
// needs EBR even though Go's own tracing garbage collector makes manual
// "free" unnecessary for ordinary heap objects: Box instances are
// recycled through a sync.Pool to keep the update/remove hot path
// allocation-free, and handing a Box back to the pool before every
// EBR-pinned reader that might still be dereferencing it has unpinned
// would let a concurrent reader observe a box that has already been
// reinitialized for a different key. EBR's two-epoch delay is exactly
// what makes that reuse safe. See DESIGN.md for the full rationale.

// Pool recycles *Box[K,V] values.
type Pool[K comparable, V any] struct {
	sp sync.Pool
}

// NewPool constructs an empty pool.
func NewPool[K comparable, V any]() *Pool[K, V] {
	return &Pool[K, V]{
		sp: sync.Pool{New: func() any { return new(Box[K, V]) }},
	}
}

// Get returns a Box initialized to (key, hash, value) with refcount 1,
// reusing a pooled allocation when one is available.
func (p *Pool[K, V]) Get(key K, hash uint64, value V) *Box[K, V] {
	b := p.sp.Get().(*Box[K, V])
	b.Key = key
	b.Hash = hash
	b.Value = value
	b.refs.Store(1)
	return b
}

// Put returns b to the pool. Callers must only do this after EBR has
// confirmed no pinned reader can still observe b (i.e. from inside a
// Retire dealloc callback, never directly from Release).
func (p *Pool[K, V]) Put(b *Box[K, V]) {
	var zeroK K
	var zeroV V
	b.Key, b.Value = zeroK, zeroV
	p.sp.Put(b)
}

package ebr

// queue.go implements the per-epoch deferred-destructor queue: an
// append-only segmented ring (a bounded array plus an overflow chain),
// matching spec.md §9's instruction to avoid a doubly-linked structure
// since the bucket-cell -> entry-box -> destructor-queue flow is one-way,
// never cyclic. Grounded on original_source/src/gc/queue.rs, translated
// from a fixed-size array-of-MaybeUninit to a Go slice of closures.

import "sync/atomic"

// segmentCapacity mirrors original_source's QUEUE_CAPACITY.
const segmentCapacity = 14

// retired is one pending destructor call, capturing whatever the retiring
// component needs freed (a Box.Release → dealloc hook, a bucket array, a
// resize coordinator, ...).
type retired struct {
	dealloc func()
}

// segment is one fixed-capacity slice of the queue; on overflow a new
// segment is chained via next.
type segment struct {
	head  atomic.Uint32 // next free slot, monotonically increasing
	slots [segmentCapacity]retired
	next  atomic.Pointer[segment]
}

func newSegment() *segment {
	return &segment{}
}

// push appends an item to the queue, walking the overflow chain if the
// current segment is full.
func (s *segment) push(item retired) {
	slot := s.head.Add(1) - 1
	if slot >= segmentCapacity {
		s.nextOrCreate().push(item)
		return
	}
	s.slots[slot] = item
}

func (s *segment) nextOrCreate() *segment {
	for {
		n := s.next.Load()
		if n != nil {
			return n
		}
		fresh := newSegment()
		if s.next.CompareAndSwap(nil, fresh) {
			return fresh
		}
		// Lost the race: another goroutine installed a segment first, use it.
	}
}

// drain calls fn for every retired item in this segment and its overflow
// chain, in FIFO order. Called only after the epoch has been confirmed
// safe-to-reclaim, so there is no concurrent push racing with drain for
// that queue slot (the slot belongs to a now-closed epoch).
func (s *segment) drain(fn func(retired)) {
	cur := s
	for cur != nil {
		top := cur.head.Load()
		n := top
		if n > segmentCapacity {
			n = segmentCapacity
		}
		for i := uint32(0); i < n; i++ {
			fn(cur.slots[i])
		}
		cur = cur.next.Load()
	}
}

// queue is one epoch's destructor queue: a fresh segment that grows via
// overflow chaining, swapped out wholesale by Collect.
type queue struct {
	head atomic.Pointer[segment]
}

func newQueue() *queue {
	q := &queue{}
	q.head.Store(newSegment())
	return q
}

func (q *queue) push(item retired) {
	q.head.Load().push(item)
}

// reset atomically swaps in a fresh empty segment and returns the old one
// so the caller can drain it without racing concurrent pushers that are
// still targeting the previous epoch's queue (callers only reset a queue
// for an epoch that is already confirmed two generations behind the
// current one, so no live pinned thread is still retiring into it).
func (q *queue) reset() *segment {
	fresh := newSegment()
	return q.head.Swap(fresh)
}

// approxLen returns a cheap, possibly-stale count of items pushed so far,
// used by the "queue at least half full" probabilistic-advance check and
// by the engine's pending-item count.
func (q *queue) approxLen() int {
	cur := q.head.Load()
	total := 0
	for cur != nil {
		n := int(cur.head.Load())
		if n > segmentCapacity {
			n = segmentCapacity
		}
		total += n
		cur = cur.next.Load()
	}
	return total
}

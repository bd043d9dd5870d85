package ebr

import "testing"

func TestQueuePushDrainFIFO(t *testing.T) {
	q := newQueue()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.push(retired{dealloc: func() { order = append(order, i) }})
	}
	seg := q.reset()
	seg.drain(func(r retired) { r.dealloc() })
	for i, got := range order {
		if got != i {
			t.Fatalf("drain order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestQueueOverflowsIntoNewSegment(t *testing.T) {
	q := newQueue()
	n := segmentCapacity*2 + 3
	count := 0
	for i := 0; i < n; i++ {
		q.push(retired{dealloc: func() { count++ }})
	}
	if got := q.approxLen(); got != n {
		t.Fatalf("approxLen() = %d, want %d", got, n)
	}
	seg := q.reset()
	seg.drain(func(r retired) { r.dealloc() })
	if count != n {
		t.Fatalf("drained %d items, want %d", count, n)
	}
}

func TestQueueResetGivesFreshEmptyQueue(t *testing.T) {
	q := newQueue()
	q.push(retired{dealloc: func() {}})
	q.reset()
	if got := q.approxLen(); got != 0 {
		t.Fatalf("approxLen() after reset = %d, want 0", got)
	}
}

func TestSplitmix64Varies(t *testing.T) {
	var s splitmix64
	a := s.next()
	b := s.next()
	if a == b {
		t.Fatal("consecutive splitmix64 outputs must differ")
	}
}

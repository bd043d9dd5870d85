package ebr

import (
	"sync/atomic"
	"testing"
)

func TestParticipantPinUnpinNesting(t *testing.T) {
	e := NewEngine()
	p := e.NewParticipant()
	defer p.Close()

	outer := p.Enter()
	inner := p.Enter()
	inner.Exit()
	outer.Exit()
}

func TestPinDoubleExitPanics(t *testing.T) {
	e := NewEngine()
	p := e.NewParticipant()
	defer p.Close()

	pin := p.Enter()
	pin.Exit()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double Exit")
		}
	}()
	pin.Exit()
}

func TestRetireDealloc(t *testing.T) {
	e := NewEngine()
	var called atomic.Bool
	e.Retire(func() { called.Store(true) })

	if e.PendingCount() != 1 {
		t.Fatalf("PendingCount() = %d, want 1", e.PendingCount())
	}

	// No participant is pinned, so every active thread is trivially
	// "caught up"; force one advance+collect cycle directly.
	e.tryCycle()
	// One cycle moves the epoch but the item just retired lives in the
	// *current* epoch's queue, not yet two generations behind, so it must
	// still be pending.
	if e.PendingCount() != 1 {
		t.Fatalf("item collected too early: PendingCount() = %d", e.PendingCount())
	}

	// One more advance puts two full epochs between the retirement and the
	// current epoch (0 -> 1 -> 2, safe epoch (2+2)%4 == 0), making it safe
	// to reclaim.
	e.tryCycle()
	if !called.Load() {
		t.Fatal("retired dealloc was never invoked after two epoch advances")
	}
	if e.PendingCount() != 0 {
		t.Fatalf("PendingCount() = %d after collection, want 0", e.PendingCount())
	}
}

func TestAllActiveCaughtUpBlocksAdvanceWhileLagging(t *testing.T) {
	e := NewEngine()
	p := e.NewParticipant()
	defer p.Close()

	pin := p.Enter() // localEpoch snapshotted at the current global epoch (0)
	defer pin.Exit()

	// Simulate a prior cycle having moved the global epoch forward without
	// this participant observing it yet (the scenario allActiveCaughtUp
	// exists to detect and refuse to advance past).
	e.global.store(1)

	e.tryCycle()
	if e.CurrentEpoch() != 1 {
		t.Fatalf("CurrentEpoch() = %d, want 1 (advance must be refused while a pin lags)", e.CurrentEpoch())
	}
}

func TestCurrentEpochStartsAtZero(t *testing.T) {
	e := NewEngine()
	if e.CurrentEpoch() != 0 {
		t.Fatalf("CurrentEpoch() = %d, want 0", e.CurrentEpoch())
	}
}

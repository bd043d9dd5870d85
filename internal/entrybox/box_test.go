package entrybox

import "testing"

func TestNewBoxRefCountStartsAtOne(t *testing.T) {
	b := New[string, int]("k", 42, 7)
	if b.RefCount() != 1 {
		t.Fatalf("RefCount() = %d, want 1", b.RefCount())
	}
	if b.Key != "k" || b.Hash != 42 || b.Value != 7 {
		t.Fatalf("unexpected box contents: %+v", b)
	}
}

func TestAddRefRelease(t *testing.T) {
	b := New[string, int]("k", 1, 1)
	b.AddRef()
	if b.RefCount() != 2 {
		t.Fatalf("RefCount() = %d, want 2", b.RefCount())
	}
	if zero := b.Release(); zero {
		t.Fatal("Release reported zero after only one of two refs released")
	}
	if b.RefCount() != 1 {
		t.Fatalf("RefCount() = %d, want 1", b.RefCount())
	}
	if zero := b.Release(); !zero {
		t.Fatal("Release should report zero on the last outstanding reference")
	}
}

func TestPoolGetReinitializesRefCount(t *testing.T) {
	p := NewPool[string, int]()
	b := p.Get("a", 1, 10)
	b.AddRef()
	p.Put(b)

	b2 := p.Get("b", 2, 20)
	if b2.RefCount() != 1 {
		t.Fatalf("pooled box reused with RefCount() = %d, want 1", b2.RefCount())
	}
	if b2.Key != "b" || b2.Hash != 2 || b2.Value != 20 {
		t.Fatalf("pooled box not reinitialized: %+v", b2)
	}
}

func TestPoolPutZeroesFields(t *testing.T) {
	p := NewPool[string, int]()
	b := p.Get("secret", 1, 99)
	p.Put(b)
	if b.Key != "" || b.Value != 0 {
		t.Fatalf("Put did not zero stale fields: %+v", b)
	}
}

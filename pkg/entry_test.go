package concurrentmap

import "testing"

func TestEntryOrInsertOnVacant(t *testing.T) {
	m, _ := New[string, int]()
	v := m.Entry("a").OrInsert(5)
	if v != 5 {
		t.Fatalf("OrInsert on vacant entry = %d, want 5", v)
	}
	stored, _ := m.Get("a")
	if stored != 5 {
		t.Fatalf("Get after OrInsert = %d, want 5", stored)
	}
}

func TestEntryOrInsertOnOccupiedLeavesValue(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 1)
	v := m.Entry("a").OrInsert(99)
	if v != 1 {
		t.Fatalf("OrInsert on occupied entry = %d, want 1 (unchanged)", v)
	}
}

func TestEntryOrInsertWithIsLazy(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 1)
	called := false
	v := m.Entry("a").OrInsertWith(func() int {
		called = true
		return 100
	})
	if called {
		t.Fatal("OrInsertWith called its thunk for an occupied entry")
	}
	if v != 1 {
		t.Fatalf("OrInsertWith on occupied entry = %d, want 1", v)
	}
}

func TestEntryAndModifyThenOrInsert(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 10)
	e := m.Entry("a").AndModify(func(v int) int { return v + 1 })
	v := e.OrInsert(0)
	if v != 11 {
		t.Fatalf("AndModify+OrInsert = %d, want 11", v)
	}
}

func TestEntryAndModifyOnVacantIsNoop(t *testing.T) {
	m, _ := New[string, int]()
	v := m.Entry("a").AndModify(func(v int) int { return v + 1 }).OrInsert(7)
	if v != 7 {
		t.Fatalf("AndModify on vacant + OrInsert(7) = %d, want 7", v)
	}
}

func TestEntryInsertOverwrites(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 1)
	old, existed := m.Entry("a").Insert(2)
	if !existed || old != 1 {
		t.Fatalf("Entry.Insert: got (%d, %v), want (1, true)", old, existed)
	}
	if v, _ := m.Get("a"); v != 2 {
		t.Fatalf("Get after Entry.Insert = %d, want 2", v)
	}
}

func TestEntryRemoveOccupied(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 5)
	old, existed := m.Entry("a").Remove()
	if !existed || old != 5 {
		t.Fatalf("Entry.Remove: got (%d, %v), want (5, true)", old, existed)
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("key survived Entry.Remove")
	}
}

func TestEntryRemoveVacantIsNoop(t *testing.T) {
	m, _ := New[string, int]()
	old, existed := m.Entry("missing").Remove()
	if existed || old != 0 {
		t.Fatalf("Entry.Remove on vacant: got (%d, %v), want (0, false)", old, existed)
	}
}

func TestEntryReplaceEntryRequiresOccupied(t *testing.T) {
	m, _ := New[string, int]()
	if _, replaced := m.Entry("missing").ReplaceEntry(1); replaced {
		t.Fatal("ReplaceEntry reported success on a vacant entry")
	}
	m.Insert("a", 1)
	old, replaced := m.Entry("a").ReplaceEntry(2)
	if !replaced || old != 1 {
		t.Fatalf("ReplaceEntry: got (%d, %v), want (1, true)", old, replaced)
	}
	if v, _ := m.Get("a"); v != 2 {
		t.Fatalf("Get after ReplaceEntry = %d, want 2", v)
	}
}

func TestEntryReleaseWithoutChange(t *testing.T) {
	m, _ := New[string, int]()
	m.Insert("a", 1)
	e := m.Entry("a")
	if !e.Occupied() {
		t.Fatal("Occupied() false for an existing key")
	}
	e.Release()
	if v, _ := m.Get("a"); v != 1 {
		t.Fatalf("Get after Release-only entry = %d, want 1 (unchanged)", v)
	}
}

//go:build typesize

package memsize

import (
	"testing"
	"unsafe"
)

func TestEntrySizeScalarKeyAndValue(t *testing.T) {
	got := EntrySize(uint64(0), int32(0))
	want := unsafe.Sizeof(uint64(0)) + unsafe.Sizeof(int32(0))
	if got != want {
		t.Fatalf("EntrySize(uint64,int32) = %d, want %d", got, want)
	}
}

func TestEntrySizeAccountsForStringContents(t *testing.T) {
	short := EntrySize("a", 0)
	long := EntrySize("a much longer string value here", 0)
	if long <= short {
		t.Fatalf("EntrySize with a longer string (%d) was not larger than a short one (%d)", long, short)
	}
}

func TestEntrySizeAccountsForSliceLength(t *testing.T) {
	empty := EntrySize("k", []byte{})
	full := EntrySize("k", make([]byte, 256))
	if full <= empty {
		t.Fatalf("EntrySize with a 256-byte slice (%d) was not larger than an empty one (%d)", full, empty)
	}
}

func TestTableFootprintAlignsToWordSize(t *testing.T) {
	got := TableFootprint(3, 5)
	align := unsafe.Sizeof(uintptr(0))
	if got%align != 0 {
		t.Fatalf("TableFootprint(3, 5) = %d, not aligned to %d", got, align)
	}
	if got < 15 {
		t.Fatalf("TableFootprint(3, 5) = %d, want at least 15", got)
	}
}

func TestTableFootprintExactMultipleUnchanged(t *testing.T) {
	align := unsafe.Sizeof(uintptr(0))
	got := TableFootprint(4, align)
	if got != 4*align {
		t.Fatalf("TableFootprint(4, %d) = %d, want %d (already aligned)", align, got, 4*align)
	}
}

// Package hashing centralises every unavoidable use of the `unsafe` standard
// library package for zero-allocation key hashing, plus the shard-selection
// and fingerprint arithmetic shared by both cores (C1 in the design).
//
// ⚠️ These helpers deliberately break the usual aliasing rules for the sake
// of allocation-free hashing. Use ONLY inside this module; they are not part
// of the public API and may change without notice.
//
// All functions are go:linkname-free, cgo-free and pure Go.
package hashing

import "unsafe"

/* -------------------------------------------------------------------------
   Zero-copy string/[]byte conversions
   ------------------------------------------------------------------------- */

// BytesToString converts a byte slice to a string without allocating. The
// caller must guarantee that b is never modified for the lifetime of the
// returned string.
//
// Hash's string and []byte cases hand their key straight to
// maphash.WriteString/Write, which need no conversion either way, so
// this helper is not on that path; it is kept for callers building their
// own Builder on top of these primitives and is exercised by
// hasher_test.go.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// StringToBytes re-interprets string data as a byte slice without copying.
// The slice MUST remain read-only: writing to it mutates immutable string
// storage and will corrupt the runtime. See BytesToString's note: this is
// not on Hash's production path, which already has native string/[]byte
// cases that need no conversion.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	strHdr := (*[2]uintptr)(unsafe.Pointer(&s))
	return unsafe.Slice((*byte)(unsafe.Pointer(strHdr[0])), strHdr[1])
}

// ByteSliceFrom returns a []byte view of raw memory starting at ptr with the
// given length. Caller must ensure the memory block is at least length
// bytes. Used for hashing scalar keys where only the address and size are
// known at compile time.
func ByteSliceFrom(ptr unsafe.Pointer, length uintptr) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), length)
}

/* -------------------------------------------------------------------------
   Alignment helpers — NextPowerOfTwo rounds shard counts and bucket-array
   capacities up to a power of two.
   ------------------------------------------------------------------------- */

// AlignUp rounds x up to the nearest multiple of align, which must be a
// power of two.
func AlignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo returns true if x is a power of two (exactly one bit set).
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && (x&(x-1)) == 0
}

// addressOf returns the address of a scalar/struct key for raw-byte hashing
// of non-string, non-[]byte key types.
func addressOf[T any](v *T) unsafe.Pointer {
	return unsafe.Pointer(v)
}

// sizeOf returns the in-memory size of a value of type T.
func sizeOf[T any](v T) uintptr {
	return unsafe.Sizeof(v)
}

// NextPowerOfTwo returns the smallest power of two >= x (x != 0).
func NextPowerOfTwo(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return x + 1
}

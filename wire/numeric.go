package wire

import (
	"golang.org/x/exp/constraints"
)

// Narrowing table. Signed native integers travel as i32, unsigned ones as u32.
// Encoding truncates to 32 bits; decoding sign-extends (signed) or zero-extends
// (unsigned) and then truncates to the native width.

// ToI32 truncates a signed integer to an i32 word.
func ToI32[T constraints.Signed](v T) int32 {
	return int32(v)
}

// FromI32 sign-extends an i32 word into a signed integer.
func FromI32[T constraints.Signed](w int32) T {
	return T(w)
}

// ToU32 truncates an unsigned integer to a u32 word.
func ToU32[T constraints.Unsigned](v T) uint32 {
	return uint32(v)
}

// FromU32 zero-extends a u32 word into an unsigned integer.
func FromU32[T constraints.Unsigned](w uint32) T {
	return T(w)
}

// BoolToI32 encodes a bool as 0 or 1.
func BoolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// BoolFromI32 treats any non-zero word as true.
func BoolFromI32(w int32) bool {
	return w != 0
}

// Len32 narrows a native length to the u32 wire length. ok is false when n
// does not fit, in which case the caller must refuse to encode.
func Len32[T constraints.Integer](n T) (uint32, bool) {
	if n < 0 || uint64(n) > 0xFFFFFFFF {
		return 0, false
	}
	return uint32(n), true
}

package wire

import (
	"github.com/tetratelabs/wazero/api"
)

// Value is the closed set of word types that may cross the boundary.
// Anything else must be expressed as a Slice or as a Ref into the value store.
type Value interface {
	int32 | uint32 | int64 | uint64 | float32 | float64 | Ref | Kind
}

// Encode places a wire value into a single stack slot.
func Encode[T Value](v T) uint64 {
	switch x := any(v).(type) {
	case int32:
		return api.EncodeI32(x)
	case uint32:
		return api.EncodeU32(x)
	case int64:
		return api.EncodeI64(x)
	case uint64:
		return x
	case float32:
		return api.EncodeF32(x)
	case float64:
		return api.EncodeF64(x)
	case Ref:
		return api.EncodeI32(int32(x))
	case Kind:
		return api.EncodeI32(int32(x))
	}
	panic("unreachable")
}

// Decode reads a wire value from a single stack slot.
func Decode[T Value](w uint64) T {
	var out T
	switch p := any(&out).(type) {
	case *int32:
		*p = api.DecodeI32(w)
	case *uint32:
		*p = api.DecodeU32(w)
	case *int64:
		*p = int64(w)
	case *uint64:
		*p = w
	case *float32:
		*p = api.DecodeF32(w)
	case *float64:
		*p = api.DecodeF64(w)
	case *Ref:
		*p = Ref(api.DecodeI32(w))
	case *Kind:
		*p = KindOf(api.DecodeI32(w))
	}
	return out
}

// Slice is a (pointer, length) descriptor into guest linear memory.
// For byte and string data Len counts bytes; for typed slices it counts elements.
type Slice struct {
	Ptr uint32
	Len uint32
}

// Words returns the descriptor as two i32 stack slots.
func (s Slice) Words() (ptr, length uint64) {
	return api.EncodeU32(s.Ptr), api.EncodeU32(s.Len)
}

// SliceOf rebuilds a descriptor from two stack slots.
func SliceOf(ptr, length uint64) Slice {
	return Slice{Ptr: api.DecodeU32(ptr), Len: api.DecodeU32(length)}
}

// IsEmpty reports whether the descriptor covers no elements.
func (s Slice) IsEmpty() bool {
	return s.Len == 0
}

// Ref is the raw word naming a value in the host value store.
type Ref int32

const (
	// NullRef names the permanent Null value. It is never allocated or freed.
	NullRef Ref = 0
	// FailedRef is the reserved failure sentinel. Every negative word is a failure.
	FailedRef Ref = -1
)

// Failed reports whether r is a failure sentinel.
func (r Ref) Failed() bool {
	return r < 0
}

// Kind tags what a Ref currently designates. Values match the kind_of wire tag.
type Kind int32

const (
	KindUnknown Kind = iota
	KindNull
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindNode
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindNull:    "null",
	KindObject:  "object",
	KindArray:   "array",
	KindString:  "string",
	KindNumber:  "number",
	KindBool:    "bool",
	KindNode:    "node",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf maps a wire tag to a Kind. Tags outside the closed set are Unknown.
func KindOf(tag int32) Kind {
	if tag < 0 || int(tag) >= len(kindNames) {
		return KindUnknown
	}
	return Kind(tag)
}

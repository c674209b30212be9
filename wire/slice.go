package wire

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/wippyai/wasm-bridge/errors"
)

// Elem is the set of element types a typed Slice may carry. Elements are
// stored little-endian, naturally aligned.
type Elem interface {
	int32 | uint32 | int64 | uint64 | float32 | float64
}

// ElemSize returns the encoded width of T in bytes.
func ElemSize[T Elem]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// LowerSlice copies v into a fresh guest allocation. The returned Slice counts
// elements, not bytes. Ownership passes to the receiver.
func LowerSlice[T Elem](env Env, v []T) (Slice, error) {
	if len(v) == 0 {
		return Slice{}, nil
	}
	size := ElemSize[T]()
	n, ok := Len32(uint64(len(v)) * uint64(size))
	if !ok {
		return Slice{}, errors.InvalidInput(errors.PhaseWire, "slice exceeds 4GiB")
	}

	scratch := mcache.Malloc(int(n))
	defer mcache.Free(scratch)
	for i, x := range v {
		putElem(scratch[uint32(i)*size:], x)
	}

	ptr, err := env.Alloc.Alloc(n, size)
	if err != nil {
		return Slice{}, errors.Allocation(errors.PhaseWire, n, err)
	}
	if err := env.Memory.Write(ptr, scratch); err != nil {
		env.Alloc.Free(ptr, n, size)
		return Slice{}, errors.New(errors.PhaseWire, errors.KindOutOfBounds).
			Value(ptr).Cause(err).Detail("write %d bytes", n).Build()
	}
	return Slice{Ptr: ptr, Len: uint32(len(v))}, nil
}

// LiftSlice takes ownership of a typed guest buffer, decoding it into a new
// Go slice and freeing the allocation.
func LiftSlice[T Elem](env Env, s Slice) ([]T, error) {
	if s.Len == 0 {
		return []T{}, nil
	}
	size := ElemSize[T]()
	n, ok := Len32(uint64(s.Len) * uint64(size))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseWire, uint64(s.Ptr), uint64(s.Len)*uint64(size), math.MaxUint32)
	}
	view, err := read(env.Memory, s.Ptr, n)
	if err != nil {
		return nil, err
	}
	out := make([]T, s.Len)
	for i := range out {
		out[i] = elemAt[T](view[uint32(i)*size:])
	}
	env.Alloc.Free(s.Ptr, n, size)
	return out, nil
}

func putElem[T Elem](b []byte, v T) {
	switch x := any(v).(type) {
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case uint64:
		binary.LittleEndian.PutUint64(b, x)
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	}
}

func elemAt[T Elem](b []byte) T {
	var out T
	switch p := any(&out).(type) {
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *int64:
		*p = int64(binary.LittleEndian.Uint64(b))
	case *uint64:
		*p = binary.LittleEndian.Uint64(b)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return out
}

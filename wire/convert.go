package wire

import (
	"unicode/utf8"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/cloudwego/gopkg/unsafex"

	wasmbridge "github.com/wippyai/wasm-bridge"
	"github.com/wippyai/wasm-bridge/errors"
)

// Env is the guest side of a conversion: its linear memory and the allocator
// that owns every buffer a Slice points at.
type Env struct {
	Memory wasmbridge.Memory
	Alloc  wasmbridge.Allocator
}

// LowerBytes copies b into a fresh guest allocation. Ownership of the
// allocation passes to the receiver. Empty input needs no allocation and
// yields Slice{0, 0}.
func LowerBytes(env Env, b []byte) (Slice, error) {
	if len(b) == 0 {
		return Slice{}, nil
	}
	n, ok := Len32(len(b))
	if !ok {
		return Slice{}, errors.InvalidInput(errors.PhaseWire, "buffer exceeds 4GiB")
	}
	ptr, err := env.Alloc.Alloc(n, 1)
	if err != nil {
		return Slice{}, errors.Allocation(errors.PhaseWire, n, err)
	}
	if err := env.Memory.Write(ptr, b); err != nil {
		env.Alloc.Free(ptr, n, 1)
		return Slice{}, errors.New(errors.PhaseWire, errors.KindOutOfBounds).
			Value(ptr).Cause(err).Detail("write %d bytes", n).Build()
	}
	return Slice{Ptr: ptr, Len: n}, nil
}

// LowerString is LowerBytes for strings.
func LowerString(env Env, s string) (Slice, error) {
	return LowerBytes(env, unsafex.StringToBinary(s))
}

// LiftBytes takes ownership of the guest buffer s: it copies the bytes out
// into a buffer whose length equals its capacity and frees the guest
// allocation.
func LiftBytes(env Env, s Slice) ([]byte, error) {
	if s.Len == 0 {
		return []byte{}, nil
	}
	view, err := read(env.Memory, s.Ptr, s.Len)
	if err != nil {
		return nil, err
	}
	out := dirtmake.Bytes(int(s.Len), int(s.Len))
	copy(out, view)
	env.Alloc.Free(s.Ptr, s.Len, 1)
	return out, nil
}

// LiftString takes ownership of s and decodes it as UTF-8. The guest buffer is
// freed even when validation fails.
func LiftString(env Env, s Slice) (string, error) {
	b, err := LiftBytes(env, s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.Encoding(errors.PhaseWire, b, nil)
	}
	return unsafex.BinaryToString(b), nil
}

// Anchor keeps a borrowed view alive. Release ends the borrow; for views
// produced by BorrowBytes and BorrowString it also frees the guest buffer.
type Anchor struct {
	alloc    wasmbridge.Allocator
	s        Slice
	owned    bool
	released bool
}

// Release ends the borrow. It is safe to call more than once; the guest buffer
// is freed at most once.
func (a *Anchor) Release() {
	if a == nil || a.released {
		return
	}
	a.released = true
	if a.owned && a.s.Len > 0 && a.alloc != nil {
		a.alloc.Free(a.s.Ptr, a.s.Len, 1)
	}
}

// Released reports whether Release has run.
func (a *Anchor) Released() bool {
	return a != nil && a.released
}

// BorrowBytes returns a zero-copy view over the guest buffer s. The anchor owns
// the buffer: releasing it frees the allocation and invalidates the view. The
// view is also invalidated if guest memory grows.
func BorrowBytes(env Env, s Slice) ([]byte, *Anchor, error) {
	if s.Len == 0 {
		return []byte{}, &Anchor{}, nil
	}
	view, err := read(env.Memory, s.Ptr, s.Len)
	if err != nil {
		return nil, nil, err
	}
	return view, &Anchor{alloc: env.Alloc, s: s, owned: true}, nil
}

// BorrowString is BorrowBytes with UTF-8 validation. On failure the buffer is
// still released.
func BorrowString(env Env, s Slice) (string, *Anchor, error) {
	view, anchor, err := BorrowBytes(env, s)
	if err != nil {
		return "", nil, err
	}
	if !utf8.Valid(view) {
		err := errors.Encoding(errors.PhaseWire, view, nil)
		anchor.Release()
		return "", nil, err
	}
	return unsafex.BinaryToString(view), anchor, nil
}

// BorrowMut returns a writable zero-copy view over s. The guest keeps ownership
// of the buffer, so the anchor never frees it.
func BorrowMut(env Env, s Slice) ([]byte, *Anchor, error) {
	if s.Len == 0 {
		return []byte{}, &Anchor{}, nil
	}
	view, err := read(env.Memory, s.Ptr, s.Len)
	if err != nil {
		return nil, nil, err
	}
	return view, &Anchor{s: s}, nil
}

// BorrowLent returns a read-only view over s without taking ownership. The
// guest buffer is never freed.
func BorrowLent(env Env, s Slice) ([]byte, *Anchor, error) {
	return BorrowMut(env, s)
}

// BorrowLentString is BorrowLent with UTF-8 validation.
func BorrowLentString(env Env, s Slice) (string, *Anchor, error) {
	view, anchor, err := BorrowMut(env, s)
	if err != nil {
		return "", nil, err
	}
	if !utf8.Valid(view) {
		return "", nil, errors.Encoding(errors.PhaseWire, view, nil)
	}
	return unsafex.BinaryToString(view), anchor, nil
}

func read(mem wasmbridge.Memory, ptr, n uint32) ([]byte, error) {
	view, err := mem.Read(ptr, n)
	if err != nil {
		b := errors.New(errors.PhaseWire, errors.KindOutOfBounds).
			Value(ptr).Cause(err).Detail("read [%d, %d)", ptr, uint64(ptr)+uint64(n))
		return nil, b.Build()
	}
	return view, nil
}

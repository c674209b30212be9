package handle

import (
	"unicode/utf8"

	"github.com/cloudwego/gopkg/unsafex"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/wire"
)

type state uint8

const (
	stateLive state = iota
	stateReleased
	stateMoved
)

// Handle owns one reference to a value in the far side store. It is released
// at most once: Release destroys the reference, Take moves it out. After
// either, every operation fails with a released error.
//
// A Handle is not safe for concurrent use.
type Handle struct {
	core     Core
	ref      wire.Ref
	state    state
	borrowed bool
}

// Wrap takes ownership of a word returned by a boundary call. The failure
// sentinel yields a protocol error and no Handle.
func Wrap(core Core, ref wire.Ref) (*Handle, error) {
	if ref.Failed() {
		return nil, errors.Protocol("wrap", int32(ref))
	}
	return own(core, ref), nil
}

// Borrow wraps a word the caller does not own, such as a parameter handed to
// an exported function. Release on a borrowed Handle is a no-op and Take
// produces a copy.
func Borrow(core Core, ref wire.Ref) *Handle {
	return &Handle{core: core, ref: ref, borrowed: true}
}

func own(core Core, ref wire.Ref) *Handle {
	return &Handle{core: core, ref: ref}
}

// Null returns a Handle to the Null value.
func Null(core Core) *Handle { return own(core, wire.NullRef) }

// Int asks the far side for a new integral Number.
func Int(core Core, i int64) *Handle { return own(core, core.CreateInt(i)) }

// Float asks the far side for a new floating point Number.
func Float(core Core, f float64) *Handle { return own(core, core.CreateFloat(f)) }

// Bool asks the far side for a new Bool.
func Bool(core Core, b bool) *Handle { return own(core, core.CreateBool(b)) }

// String asks the far side for a new String holding s.
func String(core Core, s string) *Handle {
	return own(core, core.CreateString(unsafex.StringToBinary(s)))
}

// Bytes asks the far side for a new String holding raw bytes.
func Bytes(core Core, b []byte) *Handle { return own(core, core.CreateString(b)) }

// Result collapses a fallible result into the single word an exported
// function returns. Errors become the failure sentinel; a nil Handle becomes
// the Null handle. h is consumed.
func Result(core Core, h *Handle, err error) wire.Ref {
	if err != nil {
		h.Release()
		return core.CreateError()
	}
	if h == nil {
		return wire.NullRef
	}
	ref, err := h.Take()
	if err != nil {
		return core.CreateError()
	}
	return ref
}

// alive reports whether the Handle holds a usable reference. A failure
// sentinel is never usable.
func (h *Handle) alive() bool {
	return h != nil && h.state == stateLive && !h.ref.Failed()
}

// failure is the error for op on a Handle that is not alive.
func (h *Handle) failure(op string) error {
	if h.Failed() {
		return errors.Protocol(op, int32(h.ref))
	}
	return errors.Released(op)
}

// Failed reports whether the Handle holds the failure sentinel, as returned
// by a constructor or getter whose far side call failed.
func (h *Handle) Failed() bool {
	return h != nil && h.state == stateLive && h.ref.Failed()
}

// Ref returns the raw word without transferring ownership.
func (h *Handle) Ref() wire.Ref {
	if h == nil {
		return wire.NullRef
	}
	return h.ref
}

// Released reports whether the Handle was released or moved.
func (h *Handle) Released() bool {
	return h == nil || h.state != stateLive
}

// Kind queries the far side. A released or failed Handle reports Unknown
// without a boundary call.
func (h *Handle) Kind() wire.Kind {
	if !h.alive() {
		return wire.KindUnknown
	}
	return h.core.KindOf(h.ref)
}

// IsNull reports whether the Handle designates the Null value.
func (h *Handle) IsNull() bool {
	return h.Kind() == wire.KindNull
}

// IsSome reports whether the Handle is live, not failed and not Null.
func (h *Handle) IsSome() bool {
	return h.alive() && h.Kind() != wire.KindNull
}

// Clone asks the far side for an independently owned reference to the same
// value.
func (h *Handle) Clone() (*Handle, error) {
	if !h.alive() {
		return nil, h.failure("clone")
	}
	if h.ref == wire.NullRef {
		return Null(h.core), nil
	}
	ref := h.core.Copy(h.ref)
	if ref.Failed() {
		return nil, errors.Protocol("copy", int32(ref))
	}
	return own(h.core, ref), nil
}

// Release destroys the reference. It is safe to call more than once and on a
// nil Handle; destroy reaches the far side at most once and never for the
// failure sentinel.
func (h *Handle) Release() {
	if h.Failed() {
		h.state = stateReleased
		return
	}
	if !h.alive() {
		return
	}
	h.state = stateReleased
	if !h.borrowed {
		h.core.Destroy(h.ref)
	}
}

// Take moves the reference out of the Handle for a call that consumes it.
// Taking a borrowed Handle yields a fresh copy and leaves the borrow intact.
func (h *Handle) Take() (wire.Ref, error) {
	if !h.alive() {
		return 0, h.failure("take")
	}
	if h.borrowed {
		if h.ref == wire.NullRef {
			return wire.NullRef, nil
		}
		ref := h.core.Copy(h.ref)
		if ref.Failed() {
			return 0, errors.Protocol("copy", int32(ref))
		}
		return ref, nil
	}
	h.state = stateMoved
	return h.ref, nil
}

func (h *Handle) expect(op string, kinds ...wire.Kind) error {
	if !h.alive() {
		return h.failure(op)
	}
	k := h.core.KindOf(h.ref)
	if k == wire.KindNull {
		return errors.NullValue(op)
	}
	for _, want := range kinds {
		if k == want {
			return nil
		}
	}
	return errors.New(errors.PhaseHandle, errors.KindTypeMismatch).
		Expected(kinds[0].String()).
		Actual(k.String()).
		Detail("%s", op).
		Build()
}

func (h *Handle) readBytes() []byte {
	n := h.core.StringLen(h.ref)
	if n <= 0 {
		return []byte{}
	}
	buf := make([]byte, n)
	h.core.ReadString(h.ref, buf)
	return buf
}

// AsString reads a String value and validates it as UTF-8.
func (h *Handle) AsString() (string, error) {
	if err := h.expect("as_string", wire.KindString); err != nil {
		return "", err
	}
	b := h.readBytes()
	if !utf8.Valid(b) {
		return "", errors.Encoding(errors.PhaseHandle, b, nil)
	}
	return unsafex.BinaryToString(b), nil
}

// AsBytes reads a String value without UTF-8 validation.
func (h *Handle) AsBytes() ([]byte, error) {
	if err := h.expect("as_bytes", wire.KindString); err != nil {
		return nil, err
	}
	return h.readBytes(), nil
}

// AsInt reads a Number, Bool or numeric String as an integer.
func (h *Handle) AsInt() (int64, error) {
	if err := h.expect("as_int", wire.KindNumber, wire.KindBool, wire.KindString); err != nil {
		return 0, err
	}
	return h.core.ReadInt(h.ref), nil
}

// AsFloat reads a Number, Bool or numeric String as a float.
func (h *Handle) AsFloat() (float64, error) {
	if err := h.expect("as_float", wire.KindNumber, wire.KindBool, wire.KindString); err != nil {
		return 0, err
	}
	return h.core.ReadFloat(h.ref), nil
}

// AsBool reads a Bool, or a Number as non-zero.
func (h *Handle) AsBool() (bool, error) {
	if err := h.expect("as_bool", wire.KindBool, wire.KindNumber); err != nil {
		return false, err
	}
	return h.core.ReadBool(h.ref), nil
}

// AsObject returns an Object view sharing this Handle's reference.
func (h *Handle) AsObject() (*Object, error) {
	if err := h.expect("as_object", wire.KindObject); err != nil {
		return nil, err
	}
	return &Object{h: h}, nil
}

// AsArray returns an Array view sharing this Handle's reference, with its
// cursors covering the whole array.
func (h *Handle) AsArray() (*Array, error) {
	if err := h.expect("as_array", wire.KindArray); err != nil {
		return nil, err
	}
	return newArray(h), nil
}

// AsNode returns a Node view sharing this Handle's reference.
func (h *Handle) AsNode() (*Node, error) {
	if err := h.expect("as_node", wire.KindNode); err != nil {
		return nil, err
	}
	return &Node{h: h}, nil
}

// Node is a Handle known to designate a parsed document or selection.
type Node struct {
	h *Handle
}

// Handle returns the underlying Handle.
func (n *Node) Handle() *Handle { return n.h }

// Release releases the underlying Handle.
func (n *Node) Release() { n.h.Release() }

package handle

import (
	"github.com/cloudwego/gopkg/unsafex"

	"github.com/wippyai/wasm-bridge/wire"
)

// Object is a key/value view over a Handle. Keys are byte strings, values are
// Handles. The view shares its Handle: releasing one releases the other.
// A released view behaves as empty.
type Object struct {
	h *Handle
}

// NewObject asks the far side for an empty object.
func NewObject(core Core) *Object {
	return &Object{h: own(core, core.CreateObject())}
}

// Handle returns the underlying Handle.
func (o *Object) Handle() *Handle { return o.h }

// Release releases the underlying Handle.
func (o *Object) Release() { o.h.Release() }

// Clone returns a view over an independently owned reference.
func (o *Object) Clone() (*Object, error) {
	h, err := o.h.Clone()
	if err != nil {
		return nil, err
	}
	return &Object{h: h}, nil
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if !o.h.alive() {
		return 0
	}
	return wire.FromI32[int](o.h.core.ObjectLen(o.h.ref))
}

// IsEmpty reports whether the object has no entries.
func (o *Object) IsEmpty() bool { return o.Len() == 0 }

// Get returns a new Handle to the value under key, owned by the caller. A
// missing key yields a Null Handle, not an error.
func (o *Object) Get(key string) *Handle {
	if !o.h.alive() {
		return Null(o.h.core)
	}
	return own(o.h.core, o.h.core.ObjectGet(o.h.ref, unsafex.StringToBinary(key)))
}

// Has reports whether key holds a non-Null value.
func (o *Object) Has(key string) bool {
	v := o.Get(key)
	defer v.Release()
	return v.IsSome()
}

// Set stores v under key. Ownership of v passes to the object.
func (o *Object) Set(key string, v *Handle) error {
	if !o.h.alive() {
		return o.h.failure("object_set")
	}
	ref, err := v.Take()
	if err != nil {
		return err
	}
	o.h.core.ObjectSet(o.h.ref, unsafex.StringToBinary(key), ref)
	return nil
}

// Remove deletes key. Removing a missing key is a no-op.
func (o *Object) Remove(key string) {
	if !o.h.alive() {
		return
	}
	o.h.core.ObjectRemove(o.h.ref, unsafex.StringToBinary(key))
}

// Keys returns a new Array of the keys as Strings, in insertion order.
func (o *Object) Keys() *Array {
	if !o.h.alive() {
		return &Array{h: Null(o.h.core), hi: -1}
	}
	return newArray(own(o.h.core, o.h.core.ObjectKeys(o.h.ref)))
}

// Values returns a new Array of the values, in key insertion order.
func (o *Object) Values() *Array {
	if !o.h.alive() {
		return &Array{h: Null(o.h.core), hi: -1}
	}
	return newArray(own(o.h.core, o.h.core.ObjectValues(o.h.ref)))
}

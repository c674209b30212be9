package handle

import (
	"iter"
	"math"

	"github.com/wippyai/wasm-bridge/wire"
)

// cursorExhausted is stored in hi once the cursors have met.
const cursorExhausted = math.MaxInt32

// Array is an ordered sequence view over a Handle with a pair of cursors for
// double-ended iteration. Next reads at lo and advances it; NextBack reads at
// hi and retreats it. Iteration ends when the cursors cross.
//
// The view shares its Handle: releasing one releases the other. Every Handle
// returned by Get, Next or NextBack is owned by the caller.
type Array struct {
	h  *Handle
	lo int32
	hi int32
}

func newArray(h *Handle) *Array {
	if !h.alive() {
		return &Array{h: h, hi: -1}
	}
	n := h.core.ArrayLen(h.ref)
	return &Array{h: h, lo: 0, hi: n - 1}
}

// NewArray asks the far side for an empty array.
func NewArray(core Core) *Array {
	return &Array{h: own(core, core.CreateArray()), hi: -1}
}

// ArrayOf builds an array from hs in order. Every element is consumed, even
// when an error is returned.
func ArrayOf(core Core, hs ...*Handle) (*Array, error) {
	a := NewArray(core)
	for i, h := range hs {
		if err := a.Insert(h); err != nil {
			for _, rest := range hs[i+1:] {
				rest.Release()
			}
			a.Release()
			return nil, err
		}
	}
	return a, nil
}

// Handle returns the underlying Handle.
func (a *Array) Handle() *Handle { return a.h }

// Release releases the underlying Handle.
func (a *Array) Release() { a.h.Release() }

// Clone returns a view over an independently owned reference, with fresh
// cursors.
func (a *Array) Clone() (*Array, error) {
	h, err := a.h.Clone()
	if err != nil {
		return nil, err
	}
	return newArray(h), nil
}

// Len returns the element count.
func (a *Array) Len() int {
	if !a.h.alive() {
		return 0
	}
	return wire.FromI32[int](a.h.core.ArrayLen(a.h.ref))
}

// IsEmpty reports whether the array has no elements.
func (a *Array) IsEmpty() bool { return a.Len() == 0 }

// Get returns a new Handle to element i. Out of range yields a Null Handle.
func (a *Array) Get(i int) *Handle {
	if !a.h.alive() || i < 0 || i > math.MaxInt32 {
		return Null(a.h.core)
	}
	return own(a.h.core, a.h.core.ArrayGet(a.h.ref, wire.ToI32(i)))
}

// Set replaces element i with v. Ownership of v passes to the array.
func (a *Array) Set(i int, v *Handle) error {
	if !a.h.alive() {
		return a.h.failure("array_set")
	}
	ref, err := v.Take()
	if err != nil {
		return err
	}
	a.h.core.ArraySet(a.h.ref, wire.ToI32(i), ref)
	return nil
}

// Insert appends v and widens the iteration range to include it. Ownership of
// v passes to the array.
func (a *Array) Insert(v *Handle) error {
	if !a.h.alive() {
		return a.h.failure("array_append")
	}
	ref, err := v.Take()
	if err != nil {
		return err
	}
	a.h.core.ArrayAppend(a.h.ref, ref)
	if a.hi != cursorExhausted {
		a.hi++
	}
	return nil
}

// Remove deletes element i and narrows the iteration range. Out of range is
// a no-op.
func (a *Array) Remove(i int) {
	if !a.h.alive() || i < 0 || i >= a.Len() {
		return
	}
	a.h.core.ArrayRemove(a.h.ref, wire.ToI32(i))
	if a.hi != cursorExhausted {
		a.hi--
	}
}

func (a *Array) exhausted() bool {
	return !a.h.alive() || a.hi == cursorExhausted || a.lo > a.hi
}

// Remaining returns how many elements the cursors still cover.
func (a *Array) Remaining() int {
	if a.exhausted() {
		return 0
	}
	return int(a.hi) - int(a.lo) + 1
}

// Rewind resets the cursors to cover the whole array.
func (a *Array) Rewind() {
	if !a.h.alive() {
		return
	}
	a.lo = 0
	a.hi = a.h.core.ArrayLen(a.h.ref) - 1
}

// Next returns the element at the low cursor and advances it.
func (a *Array) Next() (*Handle, bool) {
	if a.exhausted() {
		return nil, false
	}
	v := own(a.h.core, a.h.core.ArrayGet(a.h.ref, a.lo))
	if a.lo >= a.hi {
		a.hi = cursorExhausted
	} else {
		a.lo++
	}
	return v, true
}

// NextBack returns the element at the high cursor and retreats it.
func (a *Array) NextBack() (*Handle, bool) {
	if a.exhausted() {
		return nil, false
	}
	v := own(a.h.core, a.h.core.ArrayGet(a.h.ref, a.hi))
	if a.hi <= a.lo {
		a.hi = cursorExhausted
	} else {
		a.hi--
	}
	return v, true
}

// All iterates forward from the low cursor, yielding each index and a Handle
// the caller owns.
func (a *Array) All() iter.Seq2[int, *Handle] {
	return func(yield func(int, *Handle) bool) {
		for {
			i := int(a.lo)
			v, ok := a.Next()
			if !ok || !yield(i, v) {
				return
			}
		}
	}
}

// Backward iterates backward from the high cursor, yielding each index and a
// Handle the caller owns.
func (a *Array) Backward() iter.Seq2[int, *Handle] {
	return func(yield func(int, *Handle) bool) {
		for {
			i := int(a.hi)
			v, ok := a.NextBack()
			if !ok || !yield(i, v) {
				return
			}
		}
	}
}

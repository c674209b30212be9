// Package wire defines what may cross the guest boundary and how native
// values are converted to and from it.
//
// Only fixed-width words (Value) and the (pointer, length) Slice descriptor are
// boundary legal. Structured values live in the host value store and travel as
// a Ref. Three conversion modes exist for data behind a Slice:
//
//	Lower*   native -> wire, allocates in the guest, ownership moves to the receiver
//	Lift*    wire -> native, copies out and frees the guest buffer
//	Borrow*  wire -> zero-copy view plus an Anchor whose Release frees
//
// BorrowMut is the mutable variant: the guest keeps ownership and the anchor
// never frees. Decoded strings are validated as UTF-8.
package wire

// Package bind adapts ordinary Go functions to the word-level boundary.
//
// NewFunc inspects a function once, at registration, and builds a thunk that
// lifts each parameter from wasm stack slots, calls the function and lowers
// its results. Shapes that cannot cross the boundary are rejected before any
// module is instantiated.
//
// Parameter types:
//
//	context.Context, *store.Store          injected, no stack slots
//	int8..int64, uint8..uint64, float32/64  one slot (narrow types travel as i32)
//	bool, wire.Ref, wire.Kind               one i32 slot
//	string, []byte, []int32 ... []float64   (ptr, len), copied then freed
//	wire.Str, wire.Bytes                    (ptr, len), borrowed, freed after the call
//	wire.MutBytes                           (ptr, len), borrowed, guest keeps ownership
//	wire.Lent, wire.LentStr                 (ptr, len), read-only, guest keeps ownership
//
// Results may be empty, one value of the above (slices lower to two slots),
// *store.Value (stored, returns a handle) or (T, error). The error form
// collapses to a single handle word: failures become wire.FailedRef and the
// error stays on the host.
//
// Caller goes the other way: it fills a typed Go func variable that calls a
// guest export.
package bind

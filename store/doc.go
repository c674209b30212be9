// Package store implements the host side value store that guest handles refer
// to.
//
// A handle (wire.Ref) names a slot; slots point at reference counted Values.
// Copy adds a slot sharing the same Value, Destroy empties a slot, and a Value
// is freed once no slot or container references it. Container setters consume
// the handle they are given: its reference moves into the container.
//
// Ref 0 is the permanent Null value and is never allocated. Negative refs are
// the failure sentinel; CreateError and Fail return wire.FailedRef and keep the
// Go error host side only.
package store

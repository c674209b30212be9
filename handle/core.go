package handle

import (
	"github.com/wippyai/wasm-bridge/wire"
)

// Core is the set of value store operations a Handle is built on. In a guest
// these are the "core" imports; on the host the value store implements it
// directly.
type Core interface {
	Copy(ref wire.Ref) wire.Ref
	Destroy(ref wire.Ref)
	KindOf(ref wire.Ref) wire.Kind

	CreateArray() wire.Ref
	CreateObject() wire.Ref
	CreateString(b []byte) wire.Ref
	CreateBool(b bool) wire.Ref
	CreateInt(i int64) wire.Ref
	CreateFloat(f float64) wire.Ref
	CreateError() wire.Ref

	StringLen(ref wire.Ref) int32
	ReadString(ref wire.Ref, dst []byte)
	ReadInt(ref wire.Ref) int64
	ReadFloat(ref wire.Ref) float64
	ReadBool(ref wire.Ref) bool

	ObjectLen(ref wire.Ref) int32
	ObjectGet(ref wire.Ref, key []byte) wire.Ref
	ObjectSet(ref wire.Ref, key []byte, val wire.Ref)
	ObjectRemove(ref wire.Ref, key []byte)
	ObjectKeys(ref wire.Ref) wire.Ref
	ObjectValues(ref wire.Ref) wire.Ref

	ArrayLen(ref wire.Ref) int32
	ArrayGet(ref wire.Ref, i int32) wire.Ref
	ArraySet(ref wire.Ref, i int32, val wire.Ref)
	ArrayAppend(ref wire.Ref, val wire.Ref)
	ArrayRemove(ref wire.Ref, i int32)
}

//go:build wasip1

package guest

import (
	"github.com/wippyai/wasm-bridge/handle"
	"github.com/wippyai/wasm-bridge/wire"
)

// Core implements handle.Core over the host's "core" module.
type Core struct{}

// Values is the Core every helper in this package uses.
var Values handle.Core = Core{}

func (Core) Copy(ref wire.Ref) wire.Ref { return wire.Ref(coreCopy(int32(ref))) }
func (Core) Destroy(ref wire.Ref)       { coreDestroy(int32(ref)) }
func (Core) KindOf(ref wire.Ref) wire.Kind {
	return wire.Kind(coreKindOf(int32(ref)))
}

func (Core) CreateArray() wire.Ref  { return wire.Ref(coreCreateArray()) }
func (Core) CreateObject() wire.Ref { return wire.Ref(coreCreateObject()) }
func (Core) CreateString(b []byte) wire.Ref {
	p, n := bytesPtr(b)
	return wire.Ref(coreCreateString(p, n))
}
func (Core) CreateBool(b bool) wire.Ref {
	var v int32
	if b {
		v = 1
	}
	return wire.Ref(coreCreateBool(v))
}
func (Core) CreateInt(i int64) wire.Ref     { return wire.Ref(coreCreateInt(i)) }
func (Core) CreateFloat(f float64) wire.Ref { return wire.Ref(coreCreateFloat(f)) }
func (Core) CreateError() wire.Ref          { return wire.Ref(coreCreateError()) }

func (Core) StringLen(ref wire.Ref) int32 { return coreStringLen(int32(ref)) }
func (Core) ReadString(ref wire.Ref, dst []byte) {
	p, n := bytesPtr(dst)
	coreReadString(int32(ref), p, n)
}
func (Core) ReadInt(ref wire.Ref) int64     { return coreReadInt(int32(ref)) }
func (Core) ReadFloat(ref wire.Ref) float64 { return coreReadFloat(int32(ref)) }
func (Core) ReadBool(ref wire.Ref) bool     { return coreReadBool(int32(ref)) != 0 }

func (Core) ObjectLen(ref wire.Ref) int32 { return coreObjectLen(int32(ref)) }
func (Core) ObjectGet(ref wire.Ref, key []byte) wire.Ref {
	p, n := bytesPtr(key)
	return wire.Ref(coreObjectGet(int32(ref), p, n))
}
func (Core) ObjectSet(ref wire.Ref, key []byte, val wire.Ref) {
	p, n := bytesPtr(key)
	coreObjectSet(int32(ref), p, n, int32(val))
}
func (Core) ObjectRemove(ref wire.Ref, key []byte) {
	p, n := bytesPtr(key)
	coreObjectRemove(int32(ref), p, n)
}
func (Core) ObjectKeys(ref wire.Ref) wire.Ref   { return wire.Ref(coreObjectKeys(int32(ref))) }
func (Core) ObjectValues(ref wire.Ref) wire.Ref { return wire.Ref(coreObjectValues(int32(ref))) }

func (Core) ArrayLen(ref wire.Ref) int32 { return coreArrayLen(int32(ref)) }
func (Core) ArrayGet(ref wire.Ref, i int32) wire.Ref {
	return wire.Ref(coreArrayGet(int32(ref), i))
}
func (Core) ArraySet(ref wire.Ref, i int32, val wire.Ref) {
	coreArraySet(int32(ref), i, int32(val))
}
func (Core) ArrayAppend(ref wire.Ref, val wire.Ref) {
	coreArrayAppend(int32(ref), int32(val))
}
func (Core) ArrayRemove(ref wire.Ref, i int32) { coreArrayRemove(int32(ref), i) }

// Wrap takes ownership of a handle returned by a host call.
func Wrap(ref int32) (*handle.Handle, error) {
	return handle.Wrap(Values, wire.Ref(ref))
}

// Return hands h to the host as an export result, collapsing err to the
// failure sentinel.
func Return(h *handle.Handle, err error) int32 {
	return int32(handle.Result(Values, h, err))
}

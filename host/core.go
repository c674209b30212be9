package host

import (
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// Core exports the calling instance's value store as the "core" module.
type Core struct{}

func (Core) Namespace() string { return "core" }

// Register lists the store operations by wire name. Byte buffers are read in
// place and stay owned by the guest.
func (Core) Register() map[string]any {
	return map[string]any{
		"copy":    (*store.Store).Copy,
		"destroy": (*store.Store).Destroy,
		"kind_of": (*store.Store).KindOf,

		"create_array":  (*store.Store).CreateArray,
		"create_object": (*store.Store).CreateObject,
		"create_string": func(s *store.Store, b wire.Lent) wire.Ref { return s.CreateString(b) },
		"create_bool":   (*store.Store).CreateBool,
		"create_int":    (*store.Store).CreateInt,
		"create_float":  (*store.Store).CreateFloat,
		"create_error":  (*store.Store).CreateError,

		"string_len":  (*store.Store).StringLen,
		"read_string": func(s *store.Store, h wire.Ref, dst wire.MutBytes) { s.ReadString(h, dst) },
		"read_int":    (*store.Store).ReadInt,
		"read_float":  (*store.Store).ReadFloat,
		"read_bool":   (*store.Store).ReadBool,

		"object_len": (*store.Store).ObjectLen,
		"object_get": func(s *store.Store, h wire.Ref, key wire.Lent) wire.Ref {
			return s.ObjectGet(h, key)
		},
		"object_set": func(s *store.Store, h wire.Ref, key wire.Lent, v wire.Ref) {
			s.ObjectSet(h, key, v)
		},
		"object_remove": func(s *store.Store, h wire.Ref, key wire.Lent) {
			s.ObjectRemove(h, key)
		},
		"object_keys":   (*store.Store).ObjectKeys,
		"object_values": (*store.Store).ObjectValues,

		"array_len":    (*store.Store).ArrayLen,
		"array_get":    (*store.Store).ArrayGet,
		"array_set":    (*store.Store).ArraySet,
		"array_append": (*store.Store).ArrayAppend,
		"array_remove": (*store.Store).ArrayRemove,
	}
}

package bind

import (
	"context"
	"reflect"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

var (
	ctxType       = reflect.TypeFor[context.Context]()
	storeType     = reflect.TypeFor[*store.Store]()
	errorType     = reflect.TypeFor[error]()
	valueType     = reflect.TypeFor[*store.Value]()
	refType       = reflect.TypeFor[wire.Ref]()
	kindType      = reflect.TypeFor[wire.Kind]()
	strViewType   = reflect.TypeFor[wire.Str]()
	bytesViewType = reflect.TypeFor[wire.Bytes]()
	mutBytesType  = reflect.TypeFor[wire.MutBytes]()
	lentType      = reflect.TypeFor[wire.Lent]()
	lentStrType   = reflect.TypeFor[wire.LentStr]()
)

var (
	flatI32  = []api.ValueType{api.ValueTypeI32}
	flatI64  = []api.ValueType{api.ValueTypeI64}
	flatF32  = []api.ValueType{api.ValueTypeF32}
	flatF64  = []api.ValueType{api.ValueTypeF64}
	flatPair = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
)

type direction uint8

const (
	dirParam direction = iota
	dirResult
)

func (d direction) String() string {
	if d == dirResult {
		return "result"
	}
	return "parameter"
}

// codec moves one Go value across the boundary.
type codec struct {
	typ  reflect.Type
	flat []api.ValueType
	wit  wit.Type

	// lift builds the Go value from its stack slots. A non-nil anchor keeps a
	// borrowed view alive and is released after the call returns.
	lift func(env Env, words []uint64) (reflect.Value, *wire.Anchor, error)
	// lower writes v into len(flat) stack slots.
	lower func(env Env, v reflect.Value, out []uint64) error

	// elemSize is set when lower hands over a guest allocation of Len
	// elements of this width.
	elemSize uint32
}

// reclaim frees the allocation lower wrote into words. It is only for
// values the callee never received.
func (c *codec) reclaim(env Env, words []uint64) {
	if c.elemSize == 0 {
		return
	}
	s := wire.SliceOf(words[0], words[1])
	if s.IsEmpty() {
		return
	}
	env.Alloc.Free(s.Ptr, s.Len*c.elemSize, c.elemSize)
}

func namedType(name string, kind wit.TypeDefKind) wit.Type {
	return &wit.TypeDef{Name: &name, Kind: kind}
}

func listOf(elem wit.Type) wit.Type {
	return &wit.TypeDef{Kind: &wit.List{Type: elem}}
}

var (
	handleWIT = namedType("handle", wit.S32{})
	kindWIT   = namedType("kind", wit.S32{})
)

func codecFor(t reflect.Type, dir direction) (*codec, error) {
	switch t {
	case refType:
		return &codec{
			typ:  t,
			flat: flatI32,
			wit:  handleWIT,
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				return reflect.ValueOf(wire.Decode[wire.Ref](w[0])), nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = wire.Encode(wire.Ref(v.Int()))
				return nil
			},
		}, nil
	case kindType:
		return &codec{
			typ:  t,
			flat: flatI32,
			wit:  kindWIT,
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				return reflect.ValueOf(wire.Decode[wire.Kind](w[0])), nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = wire.Encode(wire.Kind(v.Int()))
				return nil
			},
		}, nil
	case strViewType, bytesViewType, mutBytesType, lentType, lentStrType:
		if dir == dirResult {
			return nil, errors.Unsupported(errors.PhaseBind, t.String(), "borrowed view as result")
		}
		return borrowCodec(t), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return &codec{
			typ:  t,
			flat: flatI32,
			wit:  wit.Bool{},
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetBool(wire.BoolFromI32(api.DecodeI32(w[0])))
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = api.EncodeI32(wire.BoolToI32(v.Bool()))
				return nil
			},
		}, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int:
		return &codec{
			typ:  t,
			flat: flatI32,
			wit:  signedWIT(t.Kind()),
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetInt(wire.FromI32[int64](api.DecodeI32(w[0])))
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = api.EncodeI32(wire.ToI32(v.Int()))
				return nil
			},
		}, nil
	case reflect.Int64:
		return &codec{
			typ:  t,
			flat: flatI64,
			wit:  wit.S64{},
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetInt(int64(w[0]))
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = api.EncodeI64(v.Int())
				return nil
			},
		}, nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint:
		return &codec{
			typ:  t,
			flat: flatI32,
			wit:  unsignedWIT(t.Kind()),
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetUint(wire.FromU32[uint64](api.DecodeU32(w[0])))
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = api.EncodeU32(wire.ToU32(v.Uint()))
				return nil
			},
		}, nil
	case reflect.Uint64:
		return &codec{
			typ:  t,
			flat: flatI64,
			wit:  wit.U64{},
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetUint(w[0])
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = v.Uint()
				return nil
			},
		}, nil
	case reflect.Float32:
		return &codec{
			typ:  t,
			flat: flatF32,
			wit:  wit.F32{},
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetFloat(float64(api.DecodeF32(w[0])))
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = api.EncodeF32(float32(v.Float()))
				return nil
			},
		}, nil
	case reflect.Float64:
		return &codec{
			typ:  t,
			flat: flatF64,
			wit:  wit.F64{},
			lift: func(_ Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				v := reflect.New(t).Elem()
				v.SetFloat(api.DecodeF64(w[0]))
				return v, nil, nil
			},
			lower: func(_ Env, v reflect.Value, out []uint64) error {
				out[0] = api.EncodeF64(v.Float())
				return nil
			},
		}, nil
	case reflect.String:
		return &codec{
			typ:      t,
			flat:     flatPair,
			wit:      wit.String{},
			elemSize: 1,
			lift: func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
				s, err := wire.LiftString(env.Env, wire.SliceOf(w[0], w[1]))
				if err != nil {
					return reflect.Value{}, nil, err
				}
				v := reflect.New(t).Elem()
				v.SetString(s)
				return v, nil, nil
			},
			lower: func(env Env, v reflect.Value, out []uint64) error {
				s, err := wire.LowerString(env.Env, v.String())
				if err != nil {
					return err
				}
				out[0], out[1] = s.Words()
				return nil
			},
		}, nil
	case reflect.Slice:
		switch t.Elem() {
		case reflect.TypeFor[byte]():
			return bytesCodec(t), nil
		case reflect.TypeFor[int32]():
			return sliceCodec[int32](t, wit.S32{}), nil
		case reflect.TypeFor[uint32]():
			return sliceCodec[uint32](t, wit.U32{}), nil
		case reflect.TypeFor[int64]():
			return sliceCodec[int64](t, wit.S64{}), nil
		case reflect.TypeFor[uint64]():
			return sliceCodec[uint64](t, wit.U64{}), nil
		case reflect.TypeFor[float32]():
			return sliceCodec[float32](t, wit.F32{}), nil
		case reflect.TypeFor[float64]():
			return sliceCodec[float64](t, wit.F64{}), nil
		}
	}
	return nil, errors.Unsupported(errors.PhaseBind, t.String(), dir.String())
}

func signedWIT(k reflect.Kind) wit.Type {
	switch k {
	case reflect.Int8:
		return wit.S8{}
	case reflect.Int16:
		return wit.S16{}
	}
	return wit.S32{}
}

func unsignedWIT(k reflect.Kind) wit.Type {
	switch k {
	case reflect.Uint8:
		return wit.U8{}
	case reflect.Uint16:
		return wit.U16{}
	}
	return wit.U32{}
}

func bytesCodec(t reflect.Type) *codec {
	return &codec{
		typ:      t,
		flat:     flatPair,
		wit:      listOf(wit.U8{}),
		elemSize: 1,
		lift: func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			b, err := wire.LiftBytes(env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			v := reflect.New(t).Elem()
			v.SetBytes(b)
			return v, nil, nil
		},
		lower: func(env Env, v reflect.Value, out []uint64) error {
			s, err := wire.LowerBytes(env.Env, v.Bytes())
			if err != nil {
				return err
			}
			out[0], out[1] = s.Words()
			return nil
		},
	}
}

func sliceCodec[T wire.Elem](t reflect.Type, elem wit.Type) *codec {
	plain := reflect.TypeFor[[]T]()
	return &codec{
		typ:      t,
		flat:     flatPair,
		wit:      listOf(elem),
		elemSize: wire.ElemSize[T](),
		lift: func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			out, err := wire.LiftSlice[T](env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			return reflect.ValueOf(out).Convert(t), nil, nil
		},
		lower: func(env Env, v reflect.Value, out []uint64) error {
			s, err := wire.LowerSlice(env.Env, v.Convert(plain).Interface().([]T))
			if err != nil {
				return err
			}
			out[0], out[1] = s.Words()
			return nil
		},
	}
}

// borrowCodec lifts a zero-copy view. The views are only valid during the
// call, so they have no lower side.
func borrowCodec(t reflect.Type) *codec {
	c := &codec{typ: t, flat: flatPair}
	switch t {
	case strViewType:
		c.wit = namedType("str", wit.String{})
		c.lift = func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			s, anchor, err := wire.BorrowString(env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			return reflect.ValueOf(wire.Str(s)), anchor, nil
		}
	case bytesViewType:
		c.wit = namedType("bytes", listOf(wit.U8{}))
		c.lift = func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			b, anchor, err := wire.BorrowBytes(env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			return reflect.ValueOf(wire.Bytes(b)), anchor, nil
		}
	case lentType:
		c.wit = namedType("lent-bytes", listOf(wit.U8{}))
		c.lift = func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			b, anchor, err := wire.BorrowLent(env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			return reflect.ValueOf(wire.Lent(b)), anchor, nil
		}
	case lentStrType:
		c.wit = namedType("lent-str", wit.String{})
		c.lift = func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			s, anchor, err := wire.BorrowLentString(env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			return reflect.ValueOf(wire.LentStr(s)), anchor, nil
		}
	default:
		c.wit = namedType("mut-bytes", listOf(wit.U8{}))
		c.lift = func(env Env, w []uint64) (reflect.Value, *wire.Anchor, error) {
			b, anchor, err := wire.BorrowMut(env.Env, wire.SliceOf(w[0], w[1]))
			if err != nil {
				return reflect.Value{}, nil, err
			}
			return reflect.ValueOf(wire.MutBytes(b)), anchor, nil
		}
	}
	return c
}

// storedCodec lowers any value the store can hold to a handle word. It backs
// *store.Value results and the success side of (T, error).
func storedCodec(t reflect.Type) *codec {
	return &codec{
		typ:  t,
		flat: flatI32,
		wit:  handleWIT,
		lower: func(env Env, v reflect.Value, out []uint64) error {
			out[0] = wire.Encode(storeResult(env, v))
			return nil
		},
	}
}

func storeResult(env Env, v reflect.Value) wire.Ref {
	if env.Store == nil {
		return wire.FailedRef
	}
	switch v.Type() {
	case refType:
		return wire.Ref(v.Int())
	case valueType:
		if v.IsNil() {
			return wire.NullRef
		}
		return env.Store.Put(v.Interface().(*store.Value))
	}
	if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
		return wire.NullRef
	}
	sv, err := store.FromGo(v.Interface())
	if err != nil {
		return env.Store.Fail(err)
	}
	return env.Store.Put(sv)
}

// storable reports whether T can be the success side of (T, error): it
// accepts exactly what store.FromGo converts. An empty interface is checked
// when the value arrives.
func storable(t reflect.Type) bool {
	return storableIn(t, map[reflect.Type]bool{})
}

func storableIn(t reflect.Type, seen map[reflect.Type]bool) bool {
	if t == refType || t == valueType {
		return true
	}
	if seen[t] {
		return true
	}
	seen[t] = true
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Interface:
		return t.NumMethod() == 0
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return storableIn(t.Elem(), seen)
	case reflect.Map:
		return t.Key().Kind() == reflect.String && storableIn(t.Elem(), seen)
	}
	return false
}

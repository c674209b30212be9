package bind

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/internal/memtest"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

func newEnv(t *testing.T) (Env, *memtest.Memory, *memtest.Allocator) {
	t.Helper()
	mem := memtest.NewMemory(64 * 1024)
	alloc := memtest.NewAllocator(mem)
	return Env{Env: wire.Env{Memory: mem, Alloc: alloc}, Store: store.New()}, mem, alloc
}

func mustFunc(t *testing.T, fn any) *Func {
	t.Helper()
	f, err := NewFunc("f", fn)
	require.NoError(t, err)
	return f
}

func assertKind(t *testing.T, err error, kind errors.Kind, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, errors.IsKind(err, kind), "err = %v, want %s %v", err, kind, msgAndArgs)
}

func TestNewFuncRejectsUnsupportedShapes(t *testing.T) {
	tests := []struct {
		name string
		fn   any
		kind errors.Kind
	}{
		{"not a func", 42, errors.KindTypeMismatch},
		{"channel param", func(chan int) {}, errors.KindUnsupported},
		{"map param", func(map[string]int) {}, errors.KindUnsupported},
		{"struct param", func(struct{ A int }) {}, errors.KindUnsupported},
		{"int16 slice", func([]int16) {}, errors.KindUnsupported},
		{"variadic", func(...int32) {}, errors.KindUnsupported},
		{"two results", func() (int32, int32) { return 0, 0 }, errors.KindUnsupported},
		{"bare error", func() error { return nil }, errors.KindUnsupported},
		{"three results", func() (int32, int32, error) { return 0, 0, nil }, errors.KindUnsupported},
		{"view result", func() wire.Str { return "" }, errors.KindUnsupported},
		{"func in result", func() (func(), error) { return nil, nil }, errors.KindUnsupported},
		{"map result", func() map[string]int { return nil }, errors.KindUnsupported},
		{"struct in (T, error)", func() (struct{ A int }, error) { return struct{ A int }{}, nil }, errors.KindUnsupported},
		{"struct pointer in (T, error)", func() (*struct{ A int }, error) { return nil, nil }, errors.KindUnsupported},
		{"int keyed map in (T, error)", func() (map[int]string, error) { return nil, nil }, errors.KindUnsupported},
		{"nested struct in (T, error)", func() (map[string][]struct{}, error) { return nil, nil }, errors.KindUnsupported},
		{"error in (T, error)", func() (error, error) { return nil, nil }, errors.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFunc("f", tt.fn)
			require.Error(t, err, "expected registration to fail")
			assertKind(t, err, tt.kind)
		})
	}

	type tree []tree
	for _, fn := range []any{
		func() (map[string][]any, error) { return nil, nil },
		func() ([4]float32, error) { return [4]float32{}, nil },
		func() (*int64, error) { return nil, nil },
		func() ([]*store.Value, error) { return nil, nil },
		func() (tree, error) { return nil, nil },
	} {
		_, err := NewFunc("f", fn)
		assert.NoError(t, err, "%T should register", fn)
	}

	var nilFn func()
	_, err := NewFunc("f", nilFn)
	assertKind(t, err, errors.KindInvalidInput, "nil func")
}

func TestFlatTypes(t *testing.T) {
	f := mustFunc(t, func(context.Context, *store.Store, int8, uint16, int64, uint64, float32, float64, bool, wire.Ref, string, []float64) float64 {
		return 0
	})
	wantIn := []api.ValueType{
		api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeI64,
		api.ValueTypeF32, api.ValueTypeF64, api.ValueTypeI32, api.ValueTypeI32,
		api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32,
	}
	assert.Equal(t, wantIn, f.ParamTypes())
	assert.Equal(t, []api.ValueType{api.ValueTypeF64}, f.ResultTypes())

	g := mustFunc(t, func() []byte { return nil })
	assert.Len(t, g.ResultTypes(), 2, "slice result should take two slots")
	h := mustFunc(t, func() (string, error) { return "", nil })
	assert.Len(t, h.ResultTypes(), 1, "fallible result should collapse to one slot")
}

func TestScalarNarrowing(t *testing.T) {
	env, _, _ := newEnv(t)
	var got struct {
		a int8
		b uint16
		c int
		d uint
		e bool
	}
	f := mustFunc(t, func(a int8, b uint16, c int, d uint, e bool) {
		got.a, got.b, got.c, got.d, got.e = a, b, c, d, e
	})

	stack := []uint64{
		api.EncodeI32(0x1ff),
		api.EncodeU32(0x1ffff),
		api.EncodeI32(-5),
		api.EncodeU32(math.MaxUint32),
		api.EncodeI32(7),
	}
	require.NoError(t, f.Call(context.Background(), env, stack))
	assert.Equal(t, int8(-1), got.a, "int8 truncation")
	assert.Equal(t, uint16(0xffff), got.b)
	assert.Equal(t, -5, got.c, "int sign extension")
	assert.Equal(t, uint(math.MaxUint32), got.d, "uint zero extension")
	assert.True(t, got.e, "non-zero word should decode as true")
}

func TestScalarResults(t *testing.T) {
	env, _, _ := newEnv(t)
	tests := []struct {
		name string
		fn   any
		in   []uint64
		want uint64
	}{
		{"int64 add", func(a, b int64) int64 { return a + b }, []uint64{api.EncodeI64(-2), api.EncodeI64(5)}, api.EncodeI64(3)},
		{"float32", func(x float32) float32 { return x * 2 }, []uint64{api.EncodeF32(1.5)}, api.EncodeF32(3)},
		{"float64", func(x float64) float64 { return -x }, []uint64{api.EncodeF64(0.25)}, api.EncodeF64(-0.25)},
		{"bool", func(b bool) bool { return !b }, []uint64{0}, 1},
		{"int narrows", func() int { return math.MaxInt32 + 1 }, []uint64{0}, api.EncodeI32(math.MinInt32)},
		{"ref passthrough", func(r wire.Ref) wire.Ref { return r + 1 }, []uint64{api.EncodeI32(4)}, api.EncodeI32(5)},
		{"kind", func() wire.Kind { return wire.KindArray }, []uint64{0}, api.EncodeI32(3)},
		{"uint64", func(x uint64) uint64 { return x }, []uint64{math.MaxUint64}, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFunc(t, tt.fn)
			stack := append([]uint64(nil), tt.in...)
			require.NoError(t, f.Call(context.Background(), env, stack))
			assert.Equal(t, tt.want, stack[0], "result %#x, want %#x", stack[0], tt.want)
		})
	}
}

func TestOwnedStringParam(t *testing.T) {
	env, _, alloc := newEnv(t)
	var seen string
	f := mustFunc(t, func(s string) int32 {
		seen = s
		return int32(len(s))
	})

	ptr := alloc.Place([]byte("Test"))
	stack := []uint64{api.EncodeU32(ptr), 4}
	require.NoError(t, f.Call(context.Background(), env, stack))
	assert.Equal(t, "Test", seen)
	assert.Equal(t, int32(4), api.DecodeI32(stack[0]))
	assert.Zero(t, alloc.Live(), "owned parameter buffer should be freed")
	assert.Zero(t, alloc.BadFrees)
}

func TestTypedSliceRoundTrip(t *testing.T) {
	env, _, alloc := newEnv(t)
	f := mustFunc(t, func(v []int32) []int32 {
		out := make([]int32, len(v))
		for i, x := range v {
			out[len(v)-1-i] = x
		}
		return out
	})

	in, err := wire.LowerSlice(env.Env, []int32{1, -2, 3})
	require.NoError(t, err)
	stack := make([]uint64, 2)
	stack[0], stack[1] = in.Words()
	require.NoError(t, f.Call(context.Background(), env, stack))
	out, err := wire.LiftSlice[int32](env.Env, wire.SliceOf(stack[0], stack[1]))
	require.NoError(t, err)
	assert.Equal(t, []int32{3, -2, 1}, out)
	assert.Zero(t, alloc.Live(), "allocations leaked")
}

func TestBorrowedViews(t *testing.T) {
	env, mem, alloc := newEnv(t)

	t.Run("str freed after call", func(t *testing.T) {
		ptr := alloc.Place([]byte("borrowed"))
		var liveDuring bool
		var seen string
		f := mustFunc(t, func(s wire.Str) {
			liveDuring = alloc.Owns(ptr)
			seen = string(s)
		})
		require.NoError(t, f.Call(context.Background(), env, []uint64{api.EncodeU32(ptr), 8}))
		assert.True(t, liveDuring)
		assert.Equal(t, "borrowed", seen)
		assert.False(t, alloc.Owns(ptr), "anchor should free the buffer after the call")
	})

	t.Run("bytes aliases guest memory", func(t *testing.T) {
		ptr := alloc.Place([]byte{1, 2, 3})
		var first byte
		f := mustFunc(t, func(b wire.Bytes) { first = b[0] })
		require.NoError(t, f.Call(context.Background(), env, []uint64{api.EncodeU32(ptr), 3}))
		assert.Equal(t, byte(1), first)
		assert.False(t, alloc.Owns(ptr))
	})

	t.Run("mutable writes through and guest keeps ownership", func(t *testing.T) {
		ptr := alloc.Place([]byte("abc"))
		f := mustFunc(t, func(b wire.MutBytes) { b[0] = 'X' })
		require.NoError(t, f.Call(context.Background(), env, []uint64{api.EncodeU32(ptr), 3}))
		got, _ := mem.Read(ptr, 3)
		assert.Equal(t, "Xbc", string(got))
		assert.True(t, alloc.Owns(ptr), "mutable borrow must not free")
	})
}

func TestFallibleResults(t *testing.T) {
	env, _, _ := newEnv(t)
	st := env.Store
	boom := fmt.Errorf("boom")

	t.Run("value stored", func(t *testing.T) {
		f := mustFunc(t, func(ok bool) (*store.Value, error) {
			if !ok {
				return nil, boom
			}
			return store.NewString("done"), nil
		})
		stack := []uint64{1}
		require.NoError(t, f.Call(context.Background(), env, stack))
		ref := wire.Decode[wire.Ref](stack[0])
		require.Equal(t, wire.KindString, st.KindOf(ref))
		st.Destroy(ref)

		stack = []uint64{0}
		require.NoError(t, f.Call(context.Background(), env, stack))
		assert.Equal(t, wire.FailedRef, wire.Decode[wire.Ref](stack[0]), "failure should collapse to the sentinel")
		assert.Equal(t, boom, st.LastError())
	})

	t.Run("go values converted", func(t *testing.T) {
		f := mustFunc(t, func() ([]string, error) { return []string{"a", "b"}, nil })
		stack := []uint64{0}
		require.NoError(t, f.Call(context.Background(), env, stack))
		ref := wire.Decode[wire.Ref](stack[0])
		assert.Equal(t, wire.KindArray, st.KindOf(ref))
		assert.Equal(t, int32(2), st.ArrayLen(ref))
		st.Destroy(ref)
	})

	t.Run("ref passes through", func(t *testing.T) {
		f := mustFunc(t, func(s *store.Store) (wire.Ref, error) { return s.CreateInt(9), nil })
		stack := []uint64{0}
		require.NoError(t, f.Call(context.Background(), env, stack))
		ref := wire.Decode[wire.Ref](stack[0])
		assert.Equal(t, int64(9), st.ReadInt(ref))
		st.Destroy(ref)
	})

	t.Run("nil value is null", func(t *testing.T) {
		f := mustFunc(t, func() (*store.Value, error) { return nil, nil })
		stack := []uint64{api.EncodeI32(77)}
		require.NoError(t, f.Call(context.Background(), env, stack))
		assert.Equal(t, wire.NullRef, wire.Decode[wire.Ref](stack[0]), "nil success should be the Null handle")
	})

	assert.Zero(t, st.Live(), "handles leaked")
}

func TestMarshalingFaults(t *testing.T) {
	env, _, alloc := newEnv(t)
	f := mustFunc(t, func(s string) {})

	ptr := alloc.Place([]byte{0xc3, 0x28})
	err := f.Call(context.Background(), env, []uint64{api.EncodeU32(ptr), 2})
	assertKind(t, err, errors.KindEncoding, "invalid UTF-8")
	assert.False(t, alloc.Owns(ptr), "buffer should be freed even when validation fails")

	err = f.Call(context.Background(), env, []uint64{api.EncodeU32(0xfffffff0), 64})
	assertKind(t, err, errors.KindOutOfBounds, "bad descriptor")

	err = f.Call(context.Background(), env, []uint64{0})
	assertKind(t, err, errors.KindInvalidInput, "short stack")

	alloc.Fail = true
	g := mustFunc(t, func() string { return "x" })
	err = g.Call(context.Background(), env, make([]uint64, 2))
	assertKind(t, err, errors.KindAllocation, "allocator failure")
}

func TestGoModuleFuncTraps(t *testing.T) {
	env, _, _ := newEnv(t)
	f := mustFunc(t, func(s string) {})
	host := f.GoModuleFunc(StaticEnv(env))

	assert.Panics(t, func() {
		host(context.Background(), nil, []uint64{api.EncodeU32(0xfffffff0), 64})
	}, "marshaling fault should trap")
}

func TestInjectedParameters(t *testing.T) {
	env, _, _ := newEnv(t)
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	var gotCtx context.Context
	var gotStore *store.Store
	f := mustFunc(t, func(c context.Context, s *store.Store, n int32) int32 {
		gotCtx, gotStore = c, s
		return n
	})
	require.Len(t, f.ParamTypes(), 1, "injected parameters should take no slots")
	stack := []uint64{api.EncodeI32(3)}
	require.NoError(t, f.Call(ctx, env, stack))
	assert.Equal(t, "v", gotCtx.Value(key{}))
	assert.Same(t, env.Store, gotStore)

	noStore := env
	noStore.Store = nil
	assertKind(t, f.Call(ctx, noStore, stack), errors.KindNotFound, "missing store")
}

func TestSignature(t *testing.T) {
	f, err := NewFunc("create_string", func(_ context.Context, s wire.Bytes, n int32, v []float32) (wire.Ref, error) {
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "create_string: func(arg1: bytes, arg2: s32, arg3: list<f32>) -> handle", f.Signature().String())

	g := mustFunc(t, func(string, uint8) {})
	assert.Equal(t, "f: func(arg0: string, arg1: u8)", g.Signature().String())
}

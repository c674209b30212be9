package bind

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/internal/memtest"
	"github.com/wippyai/wasm-bridge/internal/wasmtest"
	"github.com/wippyai/wasm-bridge/wire"
)

// newGuest instantiates a guest that re-exports the named math host
// functions under the same names, so they are called the way a guest export
// is. It also exports cat(ptr, len, ptr, len) -> i32, which returns 0, and
// trap(), which traps.
func newGuest(t *testing.T, rt wazero.Runtime, r *Registry, names ...string) api.Module {
	t.Helper()
	m := wasmtest.New()
	fns := make([]*Func, len(names))
	imports := make([]uint32, len(names))
	for i, name := range names {
		f, ok := r.Lookup("math", name)
		require.True(t, ok, "math#%s is not registered", name)
		fns[i] = f
		imports[i] = m.Import("math", name, f.ParamTypes(), f.ResultTypes())
	}
	for i, f := range fns {
		var body [][]byte
		for p := range f.ParamTypes() {
			body = append(body, wasmtest.LocalGet(uint32(p)))
		}
		body = append(body, wasmtest.Call(imports[i]))
		m.Export(names[i], m.Func(f.ParamTypes(), f.ResultTypes(), nil, wasmtest.Code(body...)))
	}
	pair := []api.ValueType{wasmtest.I32, wasmtest.I32, wasmtest.I32, wasmtest.I32}
	m.Export("cat", m.Func(pair, []api.ValueType{wasmtest.I32}, nil, wasmtest.I32Const(0)))
	m.Export("trap", m.Func(nil, nil, nil, wasmtest.Unreachable()))

	ctx := context.Background()
	mod, err := rt.InstantiateWithConfig(ctx, m.Encode(), wazero.NewModuleConfig().WithName("guest"))
	require.NoError(t, err, "instantiate guest")
	return mod
}

func newCallerGuest(t *testing.T, names ...string) (*Caller, api.Module, *memtest.Allocator) {
	t.Helper()
	env, _, alloc := newEnv(t)
	r := NewRegistry()
	require.NoError(t, r.RegisterHost(mathHost{}))
	rt := newRuntime(t, r, env)
	return NewCaller(env), newGuest(t, rt, r, names...), alloc
}

func TestCallerLowersArgumentsIntoGuest(t *testing.T) {
	c, guest, alloc := newCallerGuest(t, "str_len", "utf8_parse")

	var strLen func(context.Context, string) (int32, error)
	require.NoError(t, c.Bind(guest.ExportedFunction("str_len"), &strLen))
	n, err := strLen(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, int32(5), n)
	assert.Zero(t, alloc.Live(), "argument should be freed by the callee")

	var echo func([]byte) (string, error)
	require.NoError(t, c.Bind(guest.ExportedFunction("utf8_parse"), &echo))
	s, err := echo([]byte("round trip"))
	require.NoError(t, err)
	assert.Equal(t, "round trip", s)
	assert.Zero(t, alloc.Live(), "allocations leaked")
}

func TestCallerFreesArgumentsOnLoweringFailure(t *testing.T) {
	c, guest, alloc := newCallerGuest(t)

	var cat func(context.Context, string, string) (int32, error)
	require.NoError(t, c.Bind(guest.ExportedFunction("cat"), &cat))

	// The second argument does not fit into the 64KiB test memory.
	_, err := cat(context.Background(), "hi", strings.Repeat("x", 128*1024))
	require.True(t, errors.IsKind(err, errors.KindAllocation), "err = %v, want allocation error", err)
	assert.Equal(t, 1, alloc.Allocs)
	assert.Equal(t, 1, alloc.Frees, "the first argument should be freed once")
	assert.Zero(t, alloc.Live())
	assert.Zero(t, alloc.BadFrees)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cat(ctx, "a", "b")
	assertKind(t, err, errors.KindProtocol, "cancelled call")
	assert.Zero(t, alloc.Live(), "cancelled call leaked")
	assert.Zero(t, alloc.BadFrees)

	n, err := cat(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCallerReportsFailureSentinel(t *testing.T) {
	c, guest, _ := newCallerGuest(t, "negative", "fail")

	var negative func() (wire.Ref, error)
	require.NoError(t, c.Bind(guest.ExportedFunction("negative"), &negative))
	_, err := negative()
	assertKind(t, err, errors.KindProtocol, "failure sentinel")

	var fail func(context.Context) (wire.Ref, error)
	require.NoError(t, c.Bind(guest.ExportedFunction("fail"), &fail))
	_, err = fail(context.Background())
	assertKind(t, err, errors.KindProtocol, "collapsed host error")
}

func TestCallerReportsAllocationFailure(t *testing.T) {
	c, guest, alloc := newCallerGuest(t, "str_len")

	var strLen func(context.Context, string) (int32, error)
	require.NoError(t, c.Bind(guest.ExportedFunction("str_len"), &strLen))
	alloc.Fail = true
	_, err := strLen(context.Background(), "x")
	assertKind(t, err, errors.KindAllocation, "lowering failure")
}

func TestCallerReportsTrap(t *testing.T) {
	c, guest, _ := newCallerGuest(t)

	var trap func(context.Context) error
	require.NoError(t, c.Bind(guest.ExportedFunction("trap"), &trap))
	assertKind(t, trap(context.Background()), errors.KindProtocol, "trap")
}

func TestCallerBindValidation(t *testing.T) {
	c, guest, _ := newCallerGuest(t, "add")
	add := guest.ExportedFunction("add")

	var noErr func(int32, int32) int32
	assertKind(t, c.Bind(add, &noErr), errors.KindUnsupported, "missing error result")

	var wrongWidth func(int64, int32) (int32, error)
	assertKind(t, c.Bind(add, &wrongWidth), errors.KindTypeMismatch, "signature mismatch")

	var view func(int32, int32) (wire.Str, error)
	assertKind(t, c.Bind(add, &view), errors.KindUnsupported, "borrowed result")

	var notPtr func(int32, int32) (int32, error)
	assertKind(t, c.Bind(add, notPtr), errors.KindTypeMismatch, "non-pointer")
	assertKind(t, c.Bind(nil, &notPtr), errors.KindInvalidInput, "nil function")

	require.NoError(t, c.Bind(add, &notPtr))
	sum, err := notPtr(-3, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(7), sum)
}

package wasmtest

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestLEB128(t *testing.T) {
	tests := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{63, []byte{0x3f}},
		{64, []byte{0xc0, 0x00}},
		{-1, []byte{0x7f}},
		{-64, []byte{0x40}},
		{-65, []byte{0xbf, 0x7f}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
	}
	for _, tt := range tests {
		var b bytes.Buffer
		writeS64(&b, tt.v)
		assert.Equal(t, tt.want, b.Bytes(), "writeS64(%d)", tt.v)
	}

	var b bytes.Buffer
	writeU32(&b, 624485)
	assert.Equal(t, []byte{0xe5, 0x8e, 0x26}, b.Bytes())
}

func TestModuleRunsInWazero(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	m := New()
	m.Memory(1)
	m.Data(16, []byte("Test"))
	m.Allocator(1024)
	add := m.Func([]api.ValueType{I32, I32}, []api.ValueType{I32}, nil, Code(
		LocalGet(0),
		LocalGet(1),
		I32Add(),
	))
	m.Export("add", add)

	mod, err := rt.Instantiate(ctx, m.Encode())
	require.NoError(t, err)

	res, err := mod.ExportedFunction("add").Call(ctx, api.EncodeI32(-2), api.EncodeI32(44))
	require.NoError(t, err)
	assert.Equal(t, int32(42), api.DecodeI32(res[0]))

	data, ok := mod.Memory().Read(16, 4)
	require.True(t, ok)
	assert.Equal(t, "Test", string(data), "data segment")

	alloc := mod.ExportedFunction("alloc")
	first, _ := alloc.Call(ctx, 8)
	second, _ := alloc.Call(ctx, 8)
	assert.Equal(t, uint64(1024), first[0])
	assert.Equal(t, uint64(1032), second[0])

	_, err = mod.ExportedFunction("dealloc").Call(ctx, first[0], 8)
	require.NoError(t, err)
	frees, _ := mod.ExportedFunction("frees").Call(ctx)
	assert.Equal(t, uint64(1), frees[0])
}

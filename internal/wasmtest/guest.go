package wasmtest

import "github.com/tetratelabs/wazero/api"

// Allocator adds a bump allocator starting at base: "alloc(size) -> ptr"
// never reuses memory and "dealloc(ptr, size)" only counts calls, which
// "frees() -> i32" reports. It returns the alloc function index.
func (m *Module) Allocator(base int32) uint32 {
	heap := m.Global(base)
	frees := m.Global(0)

	alloc := m.Func([]api.ValueType{I32}, []api.ValueType{I32}, nil, Code(
		GlobalGet(heap),
		GlobalGet(heap),
		LocalGet(0),
		I32Add(),
		GlobalSet(heap),
	))
	m.Export("alloc", alloc)

	dealloc := m.Func([]api.ValueType{I32, I32}, nil, nil, Code(
		GlobalGet(frees),
		I32Const(1),
		I32Add(),
		GlobalSet(frees),
	))
	m.Export("dealloc", dealloc)

	m.Export("frees", m.Func(nil, []api.ValueType{I32}, nil, GlobalGet(frees)))
	return alloc
}

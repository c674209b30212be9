// Package wasmtest assembles small core wasm modules for end-to-end tests,
// so tests need no toolchain or checked-in binaries.
package wasmtest

import (
	"bytes"
	"slices"

	"github.com/tetratelabs/wazero/api"
)

const (
	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11

	kindFunc   byte = 0x00
	kindMemory byte = 0x02

	funcTypeByte byte = 0x60
)

const (
	I32 = api.ValueTypeI32
	I64 = api.ValueTypeI64
	F64 = api.ValueTypeF64
)

type funcType struct {
	params, results []api.ValueType
}

type imported struct {
	module, name string
	typ          uint32
}

type function struct {
	typ    uint32
	locals []api.ValueType
	body   []byte
}

type global struct {
	init int32
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type segment struct {
	offset uint32
	data   []byte
}

// Module builds a module. Function indices count imports first, so every
// Import must come before the first Func.
type Module struct {
	types    []funcType
	imports  []imported
	funcs    []function
	globals  []global
	exports  []export
	data     []segment
	memPages uint32
	memory   bool
}

func New() *Module { return &Module{} }

func (m *Module) typeIndex(params, results []api.ValueType) uint32 {
	for i, t := range m.types {
		if slices.Equal(t.params, params) && slices.Equal(t.results, results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

// Import declares a function import and returns its function index.
func (m *Module) Import(module, name string, params, results []api.ValueType) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmtest: Import after Func")
	}
	m.imports = append(m.imports, imported{module: module, name: name, typ: m.typeIndex(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function and returns its index. body is terminated with end.
func (m *Module) Func(params, results, locals []api.ValueType, body []byte) uint32 {
	m.funcs = append(m.funcs, function{typ: m.typeIndex(params, results), locals: locals, body: body})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Memory declares memory 0 with pages initial pages and exports it as
// "memory".
func (m *Module) Memory(pages uint32) {
	m.memory = true
	m.memPages = pages
	m.exports = append(m.exports, export{name: "memory", kind: kindMemory})
}

// Global declares a mutable i32 global and returns its index.
func (m *Module) Global(init int32) uint32 {
	m.globals = append(m.globals, global{init: init})
	return uint32(len(m.globals) - 1)
}

func (m *Module) Export(name string, fn uint32) {
	m.exports = append(m.exports, export{name: name, kind: kindFunc, idx: fn})
}

// Data places b at offset in memory 0.
func (m *Module) Data(offset uint32, b []byte) {
	m.data = append(m.data, segment{offset: offset, data: b})
}

// Encode returns the binary module.
func (m *Module) Encode() []byte {
	var w bytes.Buffer
	w.Write([]byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00})

	if len(m.types) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.types)))
		for _, t := range m.types {
			sec.WriteByte(funcTypeByte)
			writeValTypes(&sec, t.params)
			writeValTypes(&sec, t.results)
		}
		writeSection(&w, sectionType, sec.Bytes())
	}

	if len(m.imports) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.imports)))
		for _, imp := range m.imports {
			writeName(&sec, imp.module)
			writeName(&sec, imp.name)
			sec.WriteByte(kindFunc)
			writeU32(&sec, imp.typ)
		}
		writeSection(&w, sectionImport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			writeU32(&sec, f.typ)
		}
		writeSection(&w, sectionFunction, sec.Bytes())
	}

	if m.memory {
		var sec bytes.Buffer
		writeU32(&sec, 1)
		sec.WriteByte(0x00)
		writeU32(&sec, m.memPages)
		writeSection(&w, sectionMemory, sec.Bytes())
	}

	if len(m.globals) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.globals)))
		for _, g := range m.globals {
			sec.WriteByte(byte(api.ValueTypeI32))
			sec.WriteByte(0x01)
			sec.Write(I32Const(g.init))
			sec.WriteByte(opEnd)
		}
		writeSection(&w, sectionGlobal, sec.Bytes())
	}

	if len(m.exports) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.exports)))
		for _, e := range m.exports {
			writeName(&sec, e.name)
			sec.WriteByte(e.kind)
			writeU32(&sec, e.idx)
		}
		writeSection(&w, sectionExport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			var body bytes.Buffer
			writeU32(&body, uint32(len(f.locals)))
			for _, l := range f.locals {
				writeU32(&body, 1)
				body.WriteByte(byte(l))
			}
			body.Write(f.body)
			body.WriteByte(opEnd)
			writeBytes(&sec, body.Bytes())
		}
		writeSection(&w, sectionCode, sec.Bytes())
	}

	if len(m.data) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.data)))
		for _, d := range m.data {
			sec.WriteByte(0x00)
			sec.Write(I32Const(int32(d.offset)))
			sec.WriteByte(opEnd)
			writeBytes(&sec, d.data)
		}
		writeSection(&w, sectionData, sec.Bytes())
	}

	return w.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, data []byte) {
	w.WriteByte(id)
	writeBytes(w, data)
}

func writeValTypes(w *bytes.Buffer, types []api.ValueType) {
	writeU32(w, uint32(len(types)))
	for _, t := range types {
		w.WriteByte(byte(t))
	}
}

// Package wasmbuild assembles small core WebAssembly modules for tests.
//
// It covers just enough of the binary format for guest callbacks: function
// imports, i32/i64 functions, one memory, exports and active data segments.
package wasmbuild

import "slices"

// ValType is a WebAssembly value type.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
)

const (
	magic   uint32 = 0x6D736100 // \0asm
	version uint32 = 1

	secType     byte = 1
	secImport   byte = 2
	secFunction byte = 3
	secMemory   byte = 5
	secExport   byte = 7
	secCode     byte = 10
	secData     byte = 11

	kindFunc   byte = 0x00
	kindMemory byte = 0x02
)

type funcType struct {
	params, results []ValType
}

type importFunc struct {
	module, name string
	typeIdx      uint32
}

type function struct {
	typeIdx uint32
	locals  []ValType
	body    *Code
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

// Module is a module under construction.
type Module struct {
	types   []funcType
	imports []importFunc
	funcs   []function
	exports []export
	data    []segment
	pages   uint32
	memory  bool
}

// New starts an empty module.
func New() *Module { return &Module{} }

func (m *Module) typeIndex(params, results []ValType) uint32 {
	for i, t := range m.types {
		if slices.Equal(t.params, params) && slices.Equal(t.results, results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

// Import declares an imported function and returns its function index.
// Imports occupy the low function indices, so all imports must be declared
// before the first Func.
func (m *Module) Import(module, name string, params, results []ValType) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmbuild: Import after Func")
	}
	m.imports = append(m.imports, importFunc{module: module, name: name, typeIdx: m.typeIndex(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function and returns its function index. locals follow the
// parameters in the local index space.
func (m *Module) Func(params, results, locals []ValType, body *Code) uint32 {
	m.funcs = append(m.funcs, function{typeIdx: m.typeIndex(params, results), locals: locals, body: body})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Export exports the function at idx.
func (m *Module) Export(name string, idx uint32) {
	m.exports = append(m.exports, export{name: name, kind: kindFunc, idx: idx})
}

// Memory defines memory 0 with the given minimum pages and exports it as
// name when name is not empty.
func (m *Module) Memory(pages uint32, name string) {
	m.memory = true
	m.pages = pages
	if name != "" {
		m.exports = append(m.exports, export{name: name, kind: kindMemory})
	}
}

// Data places b at offset in memory 0 on instantiation.
func (m *Module) Data(offset uint32, b []byte) {
	m.data = append(m.data, segment{offset: offset, data: b})
}

// Encode returns the binary module.
func (m *Module) Encode() []byte {
	w := &writer{}
	w.u32le(magic)
	w.u32le(version)

	if len(m.types) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.types)))
		for _, t := range m.types {
			sec.byte(0x60)
			writeValTypes(sec, t.params)
			writeValTypes(sec, t.results)
		}
		w.section(secType, sec)
	}

	if len(m.imports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.imports)))
		for _, imp := range m.imports {
			sec.name(imp.module)
			sec.name(imp.name)
			sec.byte(kindFunc)
			sec.u32(imp.typeIdx)
		}
		w.section(secImport, sec)
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			sec.u32(f.typeIdx)
		}
		w.section(secFunction, sec)
	}

	if m.memory {
		sec := &writer{}
		sec.u32(1)
		sec.byte(0x00) // min only
		sec.u32(m.pages)
		w.section(secMemory, sec)
	}

	if len(m.exports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.exports)))
		for _, e := range m.exports {
			sec.name(e.name)
			sec.byte(e.kind)
			sec.u32(e.idx)
		}
		w.section(secExport, sec)
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			body := &writer{}
			writeLocals(body, f.locals)
			if f.body != nil {
				body.raw(f.body.w.bytes())
			}
			body.byte(opEnd)
			sec.u32(uint32(body.buf.Len()))
			sec.raw(body.bytes())
		}
		w.section(secCode, sec)
	}

	if len(m.data) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.data)))
		for _, d := range m.data {
			sec.byte(0x00) // active, memory 0
			sec.byte(opI32Const)
			sec.s64(int64(int32(d.offset)))
			sec.byte(opEnd)
			sec.u32(uint32(len(d.data)))
			sec.raw(d.data)
		}
		w.section(secData, sec)
	}

	return w.bytes()
}

func writeValTypes(w *writer, types []ValType) {
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.byte(byte(t))
	}
}

// writeLocals run-length encodes local declarations.
func writeLocals(w *writer, locals []ValType) {
	type group struct {
		n uint32
		t ValType
	}
	var groups []group
	for _, t := range locals {
		if len(groups) > 0 && groups[len(groups)-1].t == t {
			groups[len(groups)-1].n++
			continue
		}
		groups = append(groups, group{n: 1, t: t})
	}
	w.u32(uint32(len(groups)))
	for _, g := range groups {
		w.u32(g.n)
		w.byte(byte(g.t))
	}
}

package wasm

import "bytes"

// Section IDs for the module sections this encoder emits.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionExport   byte = 7
	SectionCode     byte = 10
	SectionData     byte = 11
)

// Import/export descriptor kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
)

// ValType encodes a WebAssembly value type.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
	F32 ValType = 0x7D
	F64 ValType = 0x7C
)

// Opcodes used by function bodies.
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpEnd         byte = 0x0B
	OpCall        byte = 0x10
	OpDrop        byte = 0x1A
	OpLocalGet    byte = 0x20
	OpI32Load     byte = 0x28
	OpI32Store    byte = 0x36
	OpI32Const    byte = 0x41
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Import declares a function import. Only function imports are supported.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Export declares a module export by index space.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// Memory declares a linear memory with a minimum page count and an optional
// maximum.
type Memory struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// DataSegment is an active data segment for memory 0 at a constant offset.
type DataSegment struct {
	Offset uint32
	Bytes  []byte
}

// Module is a minimal core module for encoding. It covers exactly the shapes
// this library needs to exercise entry-point and stdio behavior: function
// types, function imports, defined functions, one optional memory, and
// exports. The index space for defined functions starts after the imports.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type index per defined function
	Memories []Memory
	Exports  []Export
	Code     [][]byte // body per defined function: locals vector + expr
	Data     []DataSegment
}

// Encode serializes the module to the WebAssembly binary format.
func (m *Module) Encode() []byte {
	w := newWriter()
	w.raw(Magic)
	w.raw(Version1)

	if len(m.Types) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.byte(0x60) // func type
			sec.valTypes(ft.Params)
			sec.valTypes(ft.Results)
		}
		w.section(SectionType, sec.bytes())
	}

	if len(m.Imports) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.name(imp.Module)
			sec.name(imp.Name)
			sec.byte(KindFunc)
			sec.u32(imp.TypeIdx)
		}
		w.section(SectionImport, sec.bytes())
	}

	if len(m.Funcs) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Funcs)))
		for _, typeIdx := range m.Funcs {
			sec.u32(typeIdx)
		}
		w.section(SectionFunction, sec.bytes())
	}

	if len(m.Memories) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			if mem.HasMax {
				sec.byte(0x01)
				sec.u32(mem.Min)
				sec.u32(mem.Max)
			} else {
				sec.byte(0x00)
				sec.u32(mem.Min)
			}
		}
		w.section(SectionMemory, sec.bytes())
	}

	if len(m.Exports) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.name(exp.Name)
			sec.byte(exp.Kind)
			sec.u32(exp.Index)
		}
		w.section(SectionExport, sec.bytes())
	}

	if len(m.Code) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Code)))
		for _, body := range m.Code {
			sec.u32(uint32(len(body)))
			sec.raw(body)
		}
		w.section(SectionCode, sec.bytes())
	}

	if len(m.Data) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.Data)))
		for _, seg := range m.Data {
			sec.byte(0x00) // active segment, memory 0
			sec.raw(I32Const(int32(seg.Offset)))
			sec.byte(OpEnd)
			sec.u32(uint32(len(seg.Bytes)))
			sec.raw(seg.Bytes)
		}
		w.section(SectionData, sec.bytes())
	}

	return w.bytes()
}

// Body builds a function body with no locals from the given instructions.
// The terminating end opcode is appended.
func Body(instrs ...byte) []byte {
	body := make([]byte, 0, len(instrs)+2)
	body = append(body, 0x00) // empty locals vector
	body = append(body, instrs...)
	return append(body, OpEnd)
}

// I32Const encodes an i32.const instruction with a signed LEB128 operand.
func I32Const(v int32) []byte {
	out := []byte{OpI32Const}
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// Call encodes a call instruction for the given function index.
func Call(funcIdx uint32) []byte {
	out := []byte{OpCall}
	return appendU32(out, funcIdx)
}

// I32Load encodes an i32.load with natural alignment at a static offset.
// The address operand is taken from the stack.
func I32Load(offset uint32) []byte {
	return appendU32([]byte{OpI32Load, 0x02}, offset)
}

// I32Store encodes an i32.store with natural alignment at a static offset.
// Address and value operands are taken from the stack.
func I32Store(offset uint32) []byte {
	return appendU32([]byte{OpI32Store, 0x02}, offset)
}

// writer accumulates LEB128-encoded binary output.
type writer struct {
	buf bytes.Buffer
}

func newWriter() *writer {
	return &writer{}
}

func (w *writer) bytes() []byte {
	return w.buf.Bytes()
}

func (w *writer) byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *writer) raw(data []byte) {
	w.buf.Write(data)
}

// u32 writes an unsigned LEB128 encoded uint32.
func (w *writer) u32(v uint32) {
	w.raw(appendU32(nil, v))
}

// name writes a length-prefixed UTF-8 name.
func (w *writer) name(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) valTypes(types []ValType) {
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.byte(byte(t))
	}
}

// section writes a section ID followed by its size-prefixed contents.
func (w *writer) section(id byte, contents []byte) {
	w.byte(id)
	w.u32(uint32(len(contents)))
	w.raw(contents)
}

func appendU32(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

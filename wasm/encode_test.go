package wasm

import (
	"bytes"
	"testing"
)

func TestI32Const(t *testing.T) {
	tests := []struct {
		name string
		v    int32
		want []byte
	}{
		{"zero", 0, []byte{0x41, 0x00}},
		{"small positive", 7, []byte{0x41, 0x07}},
		{"needs continuation", 64, []byte{0x41, 0xC0, 0x00}},
		{"negative one", -1, []byte{0x41, 0x7F}},
		{"negative", -64, []byte{0x41, 0x40}},
		{"large", 123456, []byte{0x41, 0xC0, 0xC4, 0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := I32Const(tt.v)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("I32Const(%d) = % x, want % x", tt.v, got, tt.want)
			}
		})
	}
}

func TestBodyTerminated(t *testing.T) {
	body := Body(OpNop)
	if body[0] != 0x00 {
		t.Errorf("body should start with empty locals vector, got %#x", body[0])
	}
	if body[len(body)-1] != OpEnd {
		t.Errorf("body should end with end opcode, got %#x", body[len(body)-1])
	}
}

// The encoder is exercised end to end by the runner and driver tests, which
// hand its output to wazero. Here we only pin the section framing.
func TestEncodeSectionLayout(t *testing.T) {
	m := &Module{
		Types: []FuncType{
			{Params: []ValType{I32}},
			{},
		},
		Imports: []Import{{Module: "wasi_snapshot_preview1", Name: "proc_exit", TypeIdx: 0}},
		Funcs:   []uint32{1},
		Exports: []Export{{Name: "_start", Kind: KindFunc, Index: 1}},
		Code:    [][]byte{Body(append(I32Const(3), Call(0)...)...)},
	}
	bin := m.Encode()

	// Sections must appear in increasing ID order after the 8-byte header.
	var order []byte
	for off := HeaderSize; off < len(bin); {
		id := bin[off]
		order = append(order, id)
		size, n := readU32(bin[off+1:])
		off += 1 + n + int(size)
	}
	want := []byte{SectionType, SectionImport, SectionFunction, SectionExport, SectionCode}
	if !bytes.Equal(order, want) {
		t.Errorf("section order = %v, want %v", order, want)
	}
}

func TestEncodeDataSegment(t *testing.T) {
	m := &Module{
		Memories: []Memory{{Min: 1}},
		Data:     []DataSegment{{Offset: 8, Bytes: []byte("hello")}},
	}
	bin := m.Encode()

	if !bytes.Contains(bin, []byte("hello")) {
		t.Error("data segment payload missing from encoded module")
	}
	if bin[HeaderSize] != SectionMemory {
		t.Errorf("first section = %d, want memory", bin[HeaderSize])
	}
}

// readU32 decodes an unsigned LEB128 value, returning it and the byte count.
func readU32(b []byte) (uint32, int) {
	var v uint32
	var shift uint
	for i, c := range b {
		v |= uint32(c&0x7F) << shift
		if c&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return v, len(b)
}

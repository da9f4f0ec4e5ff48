// Package testbed assembles the small guest programs used by tests across
// the repository. Programs are encoded in-process so tests carry no binary
// fixtures.
package testbed

import (
	"github.com/wippyai/wasm-embed/wasm"
)

// wasiModule is the import module name for WASI preview1.
const wasiModule = "wasi_snapshot_preview1"

// StartReturns builds a command module whose _start returns normally.
func StartReturns() []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "_start", Kind: wasm.KindFunc, Index: 0}},
		Code:    [][]byte{wasm.Body(wasm.OpNop)},
	}
	return m.Encode()
}

// MainReturns builds a reactor module whose main returns the given value.
func MainReturns(v int32) []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{Results: []wasm.ValType{wasm.I32}}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "main", Kind: wasm.KindFunc, Index: 0}},
		Code:    [][]byte{wasm.Body(wasm.I32Const(v)...)},
	}
	return m.Encode()
}

// MainNoResult builds a reactor module whose main returns no value.
func MainNoResult() []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "main", Kind: wasm.KindFunc, Index: 0}},
		Code:    [][]byte{wasm.Body(wasm.OpNop)},
	}
	return m.Encode()
}

// NoEntry builds a module exporting neither _start nor main.
func NoEntry() []byte {
	m := &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.I32}}},
		Funcs: []uint32{0},
		Exports: []wasm.Export{
			{Name: "answer", Kind: wasm.KindFunc, Index: 0},
		},
		Code: [][]byte{wasm.Body(wasm.I32Const(42)...)},
	}
	return m.Encode()
}

// ProcExit builds a command module whose _start calls proc_exit with code.
func ProcExit(code int32) []byte {
	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.I32}}, // proc_exit
			{},                                 // _start
		},
		Imports: []wasm.Import{{Module: wasiModule, Name: "proc_exit", TypeIdx: 0}},
		Funcs:   []uint32{1},
		Exports: []wasm.Export{{Name: "_start", Kind: wasm.KindFunc, Index: 1}},
		Code: [][]byte{
			wasm.Body(append(wasm.I32Const(code), wasm.Call(0)...)...),
		},
	}
	return m.Encode()
}

// ExitArgc builds a command module whose _start exits with the guest's
// argument count, argv[0] included. args_sizes_get writes argc at offset 0
// and the buffer size at 4.
func ExitArgc() []byte {
	body := wasm.I32Const(0)                 // *argc
	body = append(body, wasm.I32Const(4)...) // *argv_buf_size
	body = append(body, wasm.Call(0)...)     // args_sizes_get
	body = append(body, wasm.OpDrop)         // discard errno
	body = append(body, wasm.I32Const(0)...)
	body = append(body, wasm.I32Load(0)...) // argc
	body = append(body, wasm.Call(1)...)    // proc_exit

	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}},
			{Params: []wasm.ValType{wasm.I32}},
			{},
		},
		Imports: []wasm.Import{
			{Module: wasiModule, Name: "args_sizes_get", TypeIdx: 0},
			{Module: wasiModule, Name: "proc_exit", TypeIdx: 1},
		},
		Funcs:    []uint32{2},
		Memories: []wasm.Memory{{Min: 1}},
		Exports: []wasm.Export{
			{Name: "memory", Kind: wasm.KindMemory, Index: 0},
			{Name: "_start", Kind: wasm.KindFunc, Index: 2},
		},
		Code: [][]byte{wasm.Body(body...)},
	}
	return m.Encode()
}

// Trap builds a command module whose _start hits an unreachable trap.
func Trap() []byte {
	m := &wasm.Module{
		Types:   []wasm.FuncType{{}},
		Funcs:   []uint32{0},
		Exports: []wasm.Export{{Name: "_start", Kind: wasm.KindFunc, Index: 0}},
		Code:    [][]byte{wasm.Body(wasm.OpUnreachable)},
	}
	return m.Encode()
}

// WriteStdout builds a command module whose _start writes msg to fd 1 via
// fd_write and returns. Memory layout: iovec at 0 pointing at the message
// bytes placed at offset 16; fd_write's nwritten result is stored at 8.
func WriteStdout(msg string) []byte {
	n := len(msg)
	iovec := []byte{16, 0, 0, 0, byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}

	body := wasm.I32Const(1)                 // fd
	body = append(body, wasm.I32Const(0)...) // *iovs
	body = append(body, wasm.I32Const(1)...) // iovs_len
	body = append(body, wasm.I32Const(8)...) // *nwritten
	body = append(body, wasm.Call(0)...)     // fd_write
	body = append(body, wasm.OpDrop)         // discard errno

	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.I32, wasm.I32, wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}},
			{},
		},
		Imports:  []wasm.Import{{Module: wasiModule, Name: "fd_write", TypeIdx: 0}},
		Funcs:    []uint32{1},
		Memories: []wasm.Memory{{Min: uint32((16+n)/65536) + 1}},
		Exports: []wasm.Export{
			{Name: "memory", Kind: wasm.KindMemory, Index: 0},
			{Name: "_start", Kind: wasm.KindFunc, Index: 1},
		},
		Code: [][]byte{wasm.Body(body...)},
		Data: []wasm.DataSegment{
			{Offset: 0, Bytes: iovec},
			{Offset: 16, Bytes: []byte(msg)},
		},
	}
	return m.Encode()
}

// Echo builds a command module whose _start reads up to 64 bytes from fd 0
// and writes what it read to fd 1. Memory layout: read iovec at 0 (buffer at
// 16, capacity 64), nread at 8, nwritten at 12.
func Echo() []byte {
	iovec := []byte{16, 0, 0, 0, 64, 0, 0, 0}

	body := wasm.I32Const(0)                 // fd 0
	body = append(body, wasm.I32Const(0)...) // *iovs
	body = append(body, wasm.I32Const(1)...) // iovs_len
	body = append(body, wasm.I32Const(8)...) // *nread
	body = append(body, wasm.Call(0)...)     // fd_read
	body = append(body, wasm.OpDrop)

	// Shrink the iovec length to the byte count actually read.
	body = append(body, wasm.I32Const(4)...)
	body = append(body, wasm.I32Const(8)...)
	body = append(body, wasm.I32Load(0)...)
	body = append(body, wasm.I32Store(0)...)

	body = append(body, wasm.I32Const(1)...)  // fd 1
	body = append(body, wasm.I32Const(0)...)  // *iovs
	body = append(body, wasm.I32Const(1)...)  // iovs_len
	body = append(body, wasm.I32Const(12)...) // *nwritten
	body = append(body, wasm.Call(1)...)      // fd_write
	body = append(body, wasm.OpDrop)

	m := &wasm.Module{
		Types: []wasm.FuncType{
			{Params: []wasm.ValType{wasm.I32, wasm.I32, wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}},
			{},
		},
		Imports: []wasm.Import{
			{Module: wasiModule, Name: "fd_read", TypeIdx: 0},
			{Module: wasiModule, Name: "fd_write", TypeIdx: 0},
		},
		Funcs:    []uint32{1},
		Memories: []wasm.Memory{{Min: 1}},
		Exports: []wasm.Export{
			{Name: "memory", Kind: wasm.KindMemory, Index: 0},
			{Name: "_start", Kind: wasm.KindFunc, Index: 2},
		},
		Code: [][]byte{wasm.Body(body...)},
		Data: []wasm.DataSegment{
			{Offset: 0, Bytes: iovec},
		},
	}
	return m.Encode()
}

// Package main builds the C-callable embedding surface. Compile with
// `-buildmode=c-shared` to produce a shared library exporting
// wasmembed_execute, wasmembed_python_execute and wasmembed_version.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/runner"
)

func init() {
	runner.SetLogger(runner.NewStderrLogger())
}

// wasmembed_execute runs a wasm module to completion and returns its exit
// code. Returns -1 when the input pointers are invalid or execution fails
// before the guest produces a code. Stream descriptors are duplicated; the
// caller keeps ownership of the ones it passed in. Negative descriptors
// leave the corresponding stream unbound.
//
//export wasmembed_execute
func wasmembed_execute(bytes *C.uchar, length C.size_t, argv **C.char, argc C.int, stdinFD, stdoutFD, stderrFD C.int) C.int {
	var args []string
	if argv != nil && argc > 0 {
		for _, p := range unsafe.Slice(argv, int(argc)) {
			if p == nil {
				continue
			}
			args = append(args, C.GoString(p))
		}
	}

	code := executeBoundary(
		unsafe.Pointer(bytes), uint64(length),
		argv != nil, args,
		int(stdinFD), int(stdoutFD), int(stderrFD),
	)
	return C.int(code)
}

// executeBoundary enforces the pointer contract and hands off to the
// pipeline. A null module pointer, empty module, or null argument-array
// pointer fails immediately with the sentinel and a diagnostic; the
// argument array itself may be empty.
func executeBoundary(module unsafe.Pointer, length uint64, haveArgv bool, args []string, stdinFD, stdoutFD, stderrFD int) int32 {
	if module == nil || length == 0 {
		runner.Logger().Error("null or empty module pointer",
			zap.Uint64("length", length))
		return runner.ExitSentinel
	}
	if !haveArgv {
		runner.Logger().Error("null argument array pointer")
		return runner.ExitSentinel
	}

	// Copy out of caller-owned memory before it can go away.
	binary := append([]byte(nil), unsafe.Slice((*byte)(module), length)...)

	return runner.Execute(context.Background(), runner.Options{
		Binary:   binary,
		Args:     args,
		StdinFD:  stdinFD,
		StdoutFD: stdoutFD,
		StderrFD: stderrFD,
	})
}

// wasmembed_python_execute is an alias kept for callers built against the
// Python-oriented entry name.
//
//export wasmembed_python_execute
func wasmembed_python_execute(bytes *C.uchar, length C.size_t, argv **C.char, argc C.int, stdinFD, stdoutFD, stderrFD C.int) C.int {
	return wasmembed_execute(bytes, length, argv, argc, stdinFD, stdoutFD, stderrFD)
}

var (
	versionOnce sync.Once
	versionC    *C.char
)

// wasmembed_version returns the library version string. The returned
// pointer is owned by the library and stays valid for the process lifetime;
// callers must not free it.
//
//export wasmembed_version
func wasmembed_version() *C.char {
	versionOnce.Do(func() {
		versionC = C.CString(wasmembed.Version)
	})
	return versionC
}

func main() {}

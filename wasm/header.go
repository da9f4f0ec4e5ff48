package wasm

import (
	"bytes"
	"fmt"

	"github.com/wippyai/wasm-embed/errors"
)

// WebAssembly binary format magic number and version.
var (
	// Magic is the 4-byte WebAssembly magic number ("\0asm").
	Magic = []byte{0x00, 0x61, 0x73, 0x6D}

	// Version1 is the 4-byte encoding of binary format version 1, the only
	// version this library accepts.
	Version1 = []byte{0x01, 0x00, 0x00, 0x00}
)

// HeaderSize is the length of the magic number plus version field.
const HeaderSize = 8

// ValidateHeader checks that b starts with the WebAssembly magic number and
// binary format version 1. It is called before any bytes reach the engine, so
// malformed input is rejected without compiling anything.
func ValidateHeader(b []byte) error {
	if len(b) < HeaderSize {
		return errors.BadHeader(fmt.Sprintf("binary too short: %d bytes, need at least %d", len(b), HeaderSize))
	}
	if !bytes.Equal(b[0:4], Magic) {
		return errors.BadHeader(fmt.Sprintf("missing magic number: got % x", b[0:4]))
	}
	if !bytes.Equal(b[4:8], Version1) {
		return errors.BadHeader(fmt.Sprintf("unsupported binary version: got % x", b[4:8]))
	}
	return nil
}

// Package wasm defines the binary header contract enforced before any guest
// bytes reach the engine, and a minimal module encoder used to assemble small
// test programs in-process.
//
// The encoder intentionally covers only the module shapes the embedding layer
// needs: function signatures, function imports, defined functions, a single
// optional memory, and exports. It is not a general-purpose wasm assembler.
package wasm

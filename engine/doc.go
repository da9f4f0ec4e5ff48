// Package engine integrates the wazero runtime: binary header validation,
// module compilation, WASI preview1 instantiation, and module instantiation.
// The bytecode engine itself is consumed as a black box.
package engine

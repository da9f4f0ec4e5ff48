// Package wasmembed embeds WebAssembly command programs in host applications.
//
// The library loads a core WebAssembly binary, builds a WASI preview1
// environment around it (arguments, environment variables, and standard
// streams redirected onto duplicated host file descriptors), invokes the
// program's entry point, and resolves the outcome to a single int32 exit
// code. A cgo c-shared build exposes the same pipeline behind a C-callable
// boundary for non-Go hosts.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasmembed/           Root package with the library version
//	├── runner/          Top-level execute pipeline with panic capture
//	├── driver/          Instantiation, entry-point resolution, exit classification
//	├── session/         Guest environment assembly (args, env, stdio bindings)
//	├── engine/          wazero integration and WASI preview1 wiring
//	├── fdio/            Owned duplicates of host file descriptors
//	├── sched/           Per-call single-threaded task loop
//	├── wasm/            Binary header contract and a minimal module encoder
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Run a WASI command binary with host stdio:
//
//	code := runner.Execute(ctx, runner.Options{
//	    Binary:   wasmBytes,
//	    Name:     "prog",            // guest argv[0]
//	    Args:     []string{"arg1"},  // argv[1:]
//	    Env:      session.HostEnv(),
//	    StdinFD:  0,
//	    StdoutFD: 1,
//	    StderrFD: 2,
//	})
//
// # Entry Points
//
// Two entry conventions are recognized, resolved once at instantiation time:
// a command-style "_start" export (run once, exit code from normal return or
// an explicit proc_exit), and a reactor-style "main" export whose first i32
// result is the exit code. Modules exporting neither fail with a diagnostic
// listing the exports that are present.
//
// # Concurrency
//
// Each call to the pipeline owns a fresh sched.Loop, a fresh engine, and a
// session that is consumed exactly once. Concurrent calls from the host are
// independent; nothing is shared between them. Within one call all guest
// execution and stream I/O is serialized onto the call's loop thread.
//
// # Descriptor Ownership
//
// Stream bindings hold dup(2) copies of the host's descriptors. The host's
// originals are never mutated or closed; the duplicates are released exactly
// once when the session ends, on success, trap, and failure paths alike.
package wasmembed

package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/wasm"
)

// wasiModuleName is the import namespace guests use for WASI preview1.
const wasiModuleName = "wasi_snapshot_preview1"

// Engine wraps a wazero runtime. One engine is created per execution call
// and closed when the call finishes; engines are never shared across calls.
type Engine struct {
	runtime      wazero.Runtime
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// New creates an engine backed by a fresh wazero runtime.
func New(ctx context.Context) (*Engine, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())
	return &Engine{runtime: runtime}, nil
}

// Close releases the runtime and every module instantiated in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Compile validates the binary header and compiles the module. Header
// validation happens first so malformed input never reaches the compiler.
func (e *Engine) Compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	if err := wasm.ValidateHeader(wasmBytes); err != nil {
		return nil, err
	}

	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Instantiation("compile module", err)
	}
	return compiled, nil
}

// InitWASI instantiates the WASI preview1 host module in this engine's
// runtime. Safe to call more than once; later calls are no-ops.
func (e *Engine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasiModuleName) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
			return errors.Instantiation("instantiate WASI", err)
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// Instantiate instantiates a compiled module against cfg. Start functions
// are expected to be disabled in cfg; entry invocation belongs to the driver.
func (e *Engine) Instantiate(ctx context.Context, compiled wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, error) {
	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation("instantiate module", err)
	}
	return mod, nil
}

// ExportNames lists a compiled module's exported function and memory names,
// sorted. Used for the missing-entry-point diagnostic.
func ExportNames(compiled wazero.CompiledModule) []string {
	var names []string
	for name := range compiled.ExportedFunctions() {
		names = append(names, name)
	}
	for name := range compiled.ExportedMemories() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package driver

import (
	"context"
	stderrors "errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/session"
)

// State tracks the driver through one execution. Transitions only move
// forward; Finalized is reached on every path.
type State int

const (
	StateUninstantiated State = iota
	StateInstantiated
	StateInitialized
	StateRunning
	StateReturned
	StateTrapped
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninstantiated:
		return "uninstantiated"
	case StateInstantiated:
		return "instantiated"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateReturned:
		return "returned"
	case StateTrapped:
		return "trapped"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// EntryKind is the entry-point convention resolved at initialization time.
type EntryKind int

const (
	// EntryCommand is the run-once "_start" convention with no return value.
	EntryCommand EntryKind = iota
	// EntryReactor is the "main" convention returning an explicit exit code.
	EntryReactor
)

// Export names for the two entry conventions, tried in this order.
const (
	CommandEntry = "_start"
	ReactorEntry = "main"
)

// OutcomeKind tags how the guest finished.
type OutcomeKind int

const (
	// NormalReturn means the entry point returned without trapping.
	NormalReturn OutcomeKind = iota
	// ExplicitExit means the guest called proc_exit with a code.
	ExplicitExit
	// Trapped means the guest raised a genuine runtime fault.
	Trapped
)

// Outcome is the classified result of running the entry point.
type Outcome struct {
	Kind OutcomeKind
	Code int32
	Trap error // the underlying fault when Kind == Trapped
}

// Driver instantiates a compiled module against a session, invokes the
// resolved entry point, and classifies the result. A driver drives exactly
// one execution and is not reusable.
type Driver struct {
	engine    *engine.Engine
	sess      *session.Session
	state     State
	entryKind EntryKind
	entry     api.Function
	mod       api.Module
}

// New creates a driver for one run of compiled code against sess.
func New(eng *engine.Engine, sess *session.Session) *Driver {
	return &Driver{
		engine: eng,
		sess:   sess,
		state:  StateUninstantiated,
	}
}

// State reports the driver's current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// EntryKind reports the resolved entry convention. Valid once the driver has
// reached StateInitialized.
func (d *Driver) EntryKind() EntryKind {
	return d.entryKind
}

// Run executes the full lifecycle: instantiate, resolve the entry point,
// invoke it, classify, finalize. Structural failures (instantiation, missing
// entry point) return an error; guest-level failures are classified into the
// Outcome. The session and instance are released before Run returns, on
// every path.
func (d *Driver) Run(ctx context.Context, compiled wazero.CompiledModule) (Outcome, error) {
	defer d.finalize(ctx)

	// Uninstantiated -> Instantiated
	if err := d.engine.InitWASI(ctx); err != nil {
		return Outcome{}, err
	}
	if err := d.invoke(ctx, func() error {
		mod, err := d.engine.Instantiate(ctx, compiled, d.sess.ModuleConfig())
		if err != nil {
			return err
		}
		d.mod = mod
		return nil
	}); err != nil {
		return Outcome{}, err
	}
	d.state = StateInstantiated

	// Instantiated -> Initialized: resolve the entry convention once.
	if fn := d.mod.ExportedFunction(CommandEntry); fn != nil {
		d.entryKind = EntryCommand
		d.entry = fn
	} else if fn := d.mod.ExportedFunction(ReactorEntry); fn != nil {
		d.entryKind = EntryReactor
		d.entry = fn
	} else {
		return Outcome{}, &errors.NoEntryPointError{Exports: engine.ExportNames(compiled)}
	}
	d.state = StateInitialized

	// Initialized -> Running
	d.state = StateRunning
	var results []uint64
	callErr := d.invoke(ctx, func() error {
		var err error
		results, err = d.entry.Call(ctx)
		return err
	})

	outcome := d.classify(callErr, results)
	if outcome.Kind == Trapped {
		d.state = StateTrapped
	} else {
		d.state = StateReturned
	}
	return outcome, nil
}

// invoke runs fn on the session's loop when one is attached, so guest
// execution and its stream I/O stay serialized on the call's thread.
func (d *Driver) invoke(ctx context.Context, fn func() error) error {
	if loop := d.sess.Loop(); loop != nil {
		return loop.Do(ctx, fn)
	}
	return fn()
}

// classify collapses the call result into an Outcome.
func (d *Driver) classify(callErr error, results []uint64) Outcome {
	if callErr == nil {
		if d.entryKind == EntryReactor {
			return Outcome{Kind: NormalReturn, Code: d.reactorCode(results)}
		}
		return Outcome{Kind: NormalReturn, Code: 0}
	}

	// proc_exit carries the real exit code through the engine; no trap
	// message sniffing.
	var exitErr *sys.ExitError
	if stderrors.As(callErr, &exitErr) {
		return Outcome{Kind: ExplicitExit, Code: int32(exitErr.ExitCode())}
	}

	trap := errors.GuestTrap(d.entryName(), callErr)
	Logger().Error("guest trapped",
		zap.String("entry", d.entryName()),
		zap.Error(trap))
	return Outcome{Kind: Trapped, Code: 1, Trap: trap}
}

// reactorCode extracts the exit code from a reactor entry's results: the
// first i32 result, or 0 when there is none.
func (d *Driver) reactorCode(results []uint64) int32 {
	if len(results) == 0 {
		return 0
	}
	types := d.entry.Definition().ResultTypes()
	if len(types) == 0 || types[0] != api.ValueTypeI32 {
		return 0
	}
	return api.DecodeI32(results[0])
}

func (d *Driver) entryName() string {
	if d.entryKind == EntryReactor {
		return ReactorEntry
	}
	return CommandEntry
}

// finalize releases the instance and the session. Teardown anomalies are
// logged, never surfaced: the exit code is already decided by now.
func (d *Driver) finalize(ctx context.Context) {
	if d.mod != nil {
		if err := d.mod.Close(ctx); err != nil {
			Logger().Warn("instance close failed",
				zap.Error(errors.Finalization("close instance", err)))
		}
		d.mod = nil
	}
	if err := d.sess.Close(); err != nil {
		Logger().Warn("session close failed", zap.Error(err))
	}
	d.state = StateFinalized
}

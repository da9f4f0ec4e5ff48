package runner

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/driver"
	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/sched"
	"github.com/wippyai/wasm-embed/session"
	"github.com/wippyai/wasm-embed/wasm"
)

// ExitSentinel is reported for structural pipeline failures: invalid input,
// instantiation errors, missing entry points, and captured panics. Guest
// programs that want to exit with -1 still can; the sentinel only marks
// failures that happened before the guest got to run or decide.
const ExitSentinel int32 = -1

// DefaultName is the guest program name (argv[0]) when none is given.
const DefaultName = "wasmembed"

// Options configures one execution.
type Options struct {
	// Binary is the guest WebAssembly module. Borrowed for the call.
	Binary []byte

	// Name is the guest-visible program name. Defaults to DefaultName.
	Name string

	// Args is the guest argument list after argv[0]. Entries that are not
	// valid UTF-8 are dropped, not fatal.
	Args []string

	// Env is the guest environment. nil snapshots the host environment;
	// pass an empty slice for an empty guest environment.
	Env []session.EnvVar

	// Stream descriptors. Negative (session.UnboundFD) leaves a stream at
	// its default. Note the zero value names host fd 0: callers that want
	// a stream unbound must say so.
	StdinFD  int
	StdoutFD int
	StderrFD int
}

// Execute runs a guest binary to completion and returns its exit code. All
// structural failures collapse to ExitSentinel with a logged diagnostic;
// nothing escapes as a panic.
func Execute(ctx context.Context, opts Options) int32 {
	return capture(func() int32 {
		return execute(ctx, opts)
	})
}

// capture converts any panic from the pipeline into the sentinel exit code.
// This is the single unwind barrier; stages below it stay free of defensive
// recovery.
func capture(fn func() int32) (code int32) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("panic in execution pipeline",
				zap.Any("panic", r),
				zap.Stack("stack"))
			code = ExitSentinel
		}
	}()
	return fn()
}

func execute(ctx context.Context, opts Options) int32 {
	// Reject malformed binaries before any engine work.
	if err := wasm.ValidateHeader(opts.Binary); err != nil {
		Logger().Error("invalid guest binary", zap.Error(err))
		return ExitSentinel
	}

	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	loop := sched.NewLoop()
	defer loop.Close()

	eng, err := engine.New(ctx)
	if err != nil {
		Logger().Error("create engine", zap.Error(err))
		return ExitSentinel
	}
	defer func() {
		if cerr := eng.Close(ctx); cerr != nil {
			Logger().Warn("engine close failed",
				zap.Error(errors.Finalization("close engine", cerr)))
		}
	}()

	compiled, err := eng.Compile(ctx, opts.Binary)
	if err != nil {
		Logger().Error("compile guest binary", zap.Error(err))
		return ExitSentinel
	}

	builder := session.NewBuilder(name).
		WithArgs(SanitizeArgs(opts.Args)...).
		WithLoop(loop).
		WithStdinFD(opts.StdinFD).
		WithStdoutFD(opts.StdoutFD).
		WithStderrFD(opts.StderrFD)
	if opts.Env != nil {
		builder = builder.WithEnv(opts.Env)
	}

	sess, err := builder.Build(ctx)
	if err != nil {
		Logger().Error("build session", zap.Error(err))
		return ExitSentinel
	}

	outcome, err := driver.New(eng, sess).Run(ctx, compiled)
	if err != nil {
		Logger().Error("run guest", zap.Error(err))
		return ExitSentinel
	}

	return outcome.Code
}

// SanitizeArgs drops arguments that are not valid UTF-8, keeping the rest in
// order. Each skip is logged with its position; a bad argument never fails
// the call.
func SanitizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if !utf8.ValidString(arg) {
			Logger().Warn("skipping malformed argument",
				zap.Error(errors.InvalidUTF8(i, []byte(arg))))
			continue
		}
		out = append(out, arg)
	}
	return out
}

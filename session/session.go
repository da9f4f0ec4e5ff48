package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/fdio"
	"github.com/wippyai/wasm-embed/sched"
)

// Stream indices within a session's binding set.
const (
	Stdin = iota
	Stdout
	Stderr
	numStreams
)

// UnboundFD leaves a stream at its default. Any negative value works; this
// constant just names the convention.
const UnboundFD = -1

var streamNames = [numStreams]string{"stdin", "stdout", "stderr"}

// EnvVar is a single environment pair. Pairs are applied to the guest in
// slice order; a repeated name keeps the last value.
type EnvVar struct {
	Name  string
	Value string
}

// HostEnv snapshots the host process environment. Callers wanting guest
// sessions isolated from ambient process state should construct their own
// []EnvVar instead.
func HostEnv() []EnvVar {
	environ := os.Environ()
	vars := make([]EnvVar, 0, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars = append(vars, EnvVar{Name: name, Value: value})
	}
	return vars
}

// Builder assembles an execution session: arguments, environment pairs, and
// up to three stream bindings over duplicated host descriptors.
type Builder struct {
	name string
	args []string
	env  []EnvVar
	fds  [numStreams]int
	loop *sched.Loop
}

// NewBuilder creates a builder for a guest named name (argv[0] by
// convention). All three streams start unbound.
func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
		fds:  [numStreams]int{-1, -1, -1},
	}
}

// WithArgs sets the guest argument list, applied in the given order.
func (b *Builder) WithArgs(args ...string) *Builder {
	b.args = args
	return b
}

// WithEnv sets the environment pairs explicitly. When not called, Build
// snapshots the host environment via HostEnv.
func (b *Builder) WithEnv(vars []EnvVar) *Builder {
	b.env = vars
	return b
}

// WithStdinFD binds guest stdin to a duplicate of fd. Negative leaves the
// stream unbound.
func (b *Builder) WithStdinFD(fd int) *Builder {
	b.fds[Stdin] = fd
	return b
}

// WithStdoutFD binds guest stdout to a duplicate of fd. Negative leaves the
// stream unbound.
func (b *Builder) WithStdoutFD(fd int) *Builder {
	b.fds[Stdout] = fd
	return b
}

// WithStderrFD binds guest stderr to a duplicate of fd. Negative leaves the
// stream unbound.
func (b *Builder) WithStderrFD(fd int) *Builder {
	b.fds[Stderr] = fd
	return b
}

// WithLoop attaches the call's task loop. Teardown is serialized through it
// so bindings close only after queued I/O has drained.
func (b *Builder) WithLoop(l *sched.Loop) *Builder {
	b.loop = l
	return b
}

// Build finalizes the session. Environment is snapshotted first, then
// arguments and environment pairs are attached in host order, then each
// requested stream is bound by duplicating its descriptor. A duplication
// failure is logged and leaves that stream at its default; it never fails
// the build. Configuration conflicts (empty name, malformed env pair) are
// fatal.
func (b *Builder) Build(ctx context.Context) (*Session, error) {
	if b.name == "" {
		return nil, errors.InvalidInput(errors.PhaseSession, "session name must not be empty")
	}

	env := b.env
	if env == nil {
		env = HostEnv()
	}
	for _, v := range env {
		if v.Name == "" || strings.Contains(v.Name, "=") {
			return nil, errors.InvalidInput(errors.PhaseSession, fmt.Sprintf("malformed environment pair name %q", v.Name))
		}
	}

	s := &Session{
		name: b.name,
		args: b.args,
		env:  env,
		loop: b.loop,
	}

	for i, fd := range b.fds {
		if fd < 0 {
			continue
		}
		f, err := fdio.Dup(fd, streamNames[i])
		if err != nil {
			Logger().Warn("stream binding failed, leaving default",
				zap.String("stream", streamNames[i]),
				zap.Int("fd", fd),
				zap.Error(err))
			continue
		}
		s.bindings[i] = f
	}

	return s, nil
}

// Session is a finalized guest environment, consumed exactly once by the
// execution driver and never reused across calls.
type Session struct {
	name      string
	args      []string
	env       []EnvVar
	bindings  [numStreams]*fdio.File
	loop      *sched.Loop
	closeOnce sync.Once
	closeErr  error
}

// Name returns the guest program name.
func (s *Session) Name() string { return s.name }

// Args returns the guest argument list in application order.
func (s *Session) Args() []string { return s.args }

// Env returns the environment pairs in application order.
func (s *Session) Env() []EnvVar { return s.env }

// Loop returns the call's task loop, or nil when none was attached.
func (s *Session) Loop() *sched.Loop { return s.loop }

// Binding returns the owned duplicate bound to the given stream, or nil when
// the stream is unbound.
func (s *Session) Binding(stream int) *fdio.File {
	if stream < 0 || stream >= numStreams {
		return nil
	}
	return s.bindings[stream]
}

// ModuleConfig renders the session as a wazero module configuration. Start
// functions are disabled: invoking the entry point is the driver's job.
// Unbound streams keep wazero's defaults (EOF stdin, discarded output).
func (s *Session) ModuleConfig() wazero.ModuleConfig {
	cfg := wazero.NewModuleConfig().
		WithName(s.name).
		WithArgs(append([]string{s.name}, s.args...)...).
		WithStartFunctions()

	for _, v := range s.env {
		cfg = cfg.WithEnv(v.Name, v.Value)
	}

	if f := s.bindings[Stdin]; f != nil {
		cfg = cfg.WithStdin(f)
	}
	if f := s.bindings[Stdout]; f != nil {
		cfg = cfg.WithStdout(f)
	}
	if f := s.bindings[Stderr]; f != nil {
		cfg = cfg.WithStderr(f)
	}

	return cfg
}

// Close releases every stream binding exactly once. When a loop is attached
// the release runs on it, after any queued I/O. Close is safe on every exit
// path, including sessions that were never run.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		release := func() error {
			for i, f := range s.bindings {
				if f == nil {
					continue
				}
				if err := f.Close(); err != nil {
					ferr := errors.Finalization("close "+streamNames[i]+" binding", err)
					Logger().Warn("binding close failed", zap.Error(ferr))
					if s.closeErr == nil {
						s.closeErr = ferr
					}
				}
				s.bindings[i] = nil
			}
			return nil
		}

		if s.loop != nil {
			if err := s.loop.Do(context.Background(), release); stderrors.Is(err, sched.ErrClosed) {
				_ = release()
			}
			return
		}
		_ = release()
	})
	return s.closeErr
}

//go:build unix

package session

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"testing"

	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/sched"
)

func TestBuildDefaults(t *testing.T) {
	s, err := NewBuilder("guest").Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Close()

	if s.Name() != "guest" {
		t.Errorf("Name() = %q", s.Name())
	}
	for i := Stdin; i <= Stderr; i++ {
		if s.Binding(i) != nil {
			t.Errorf("stream %d should be unbound by default", i)
		}
	}
}

func TestBuildEmptyNameFatal(t *testing.T) {
	_, err := NewBuilder("").Build(context.Background())
	if !stderrors.Is(err, errors.InvalidInput(errors.PhaseSession, "")) {
		t.Errorf("Build() error = %v, want invalid_input", err)
	}
}

func TestBuildMalformedEnvFatal(t *testing.T) {
	tests := []struct {
		name string
		env  []EnvVar
	}{
		{"empty name", []EnvVar{{Name: "", Value: "v"}}},
		{"equals in name", []EnvVar{{Name: "A=B", Value: "v"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder("guest").WithEnv(tt.env).Build(context.Background())
			if err == nil {
				t.Fatal("expected build to fail")
			}
		})
	}
}

func TestEnvOrderPreserved(t *testing.T) {
	env := []EnvVar{
		{Name: "ZEBRA", Value: "1"},
		{Name: "ALPHA", Value: "2"},
		{Name: "MIDDLE", Value: "3"},
	}
	s, err := NewBuilder("guest").WithEnv(env).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Close()

	got := s.Env()
	if len(got) != len(env) {
		t.Fatalf("env length = %d, want %d", len(got), len(env))
	}
	for i := range env {
		if got[i] != env[i] {
			t.Errorf("env[%d] = %v, want %v (order must be preserved)", i, got[i], env[i])
		}
	}
}

func TestHostEnvSnapshot(t *testing.T) {
	const key = "WASM_EMBED_TEST_ENV"
	t.Setenv(key, "before")

	vars := HostEnv()
	found := false
	for _, v := range vars {
		if v.Name == key {
			found = true
			if v.Value != "before" {
				t.Errorf("value = %q, want %q", v.Value, "before")
			}
		}
	}
	if !found {
		t.Fatalf("%s missing from snapshot", key)
	}

	// Snapshots do not refresh.
	os.Setenv(key, "after")
	for _, v := range vars {
		if v.Name == key && v.Value != "before" {
			t.Error("snapshot mutated by later Setenv")
		}
	}
}

func TestNegativeFDsLeaveStreamsUnbound(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	s, err := NewBuilder("guest").
		WithStdinFD(-1).
		WithStdoutFD(int(w.Fd())).
		WithStderrFD(-1).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer s.Close()

	if s.Binding(Stdin) != nil {
		t.Error("stdin should be unbound")
	}
	if s.Binding(Stdout) == nil {
		t.Error("stdout should be bound; a negative fd elsewhere must not affect it")
	}
	if s.Binding(Stderr) != nil {
		t.Error("stderr should be unbound")
	}
}

func TestDupFailureDegradesGracefully(t *testing.T) {
	r, _, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	s, err := NewBuilder("guest").
		WithStdinFD(int(r.Fd())).
		WithStdoutFD(1 << 20). // invalid: duplication fails
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build must not fail on a per-stream dup error: %v", err)
	}
	defer s.Close()

	if s.Binding(Stdin) == nil {
		t.Error("stdin should be bound")
	}
	if s.Binding(Stdout) != nil {
		t.Error("stdout should be left unbound after dup failure")
	}
}

func TestCloseReleasesBindingsOnce(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	s, err := NewBuilder("guest").WithStdoutFD(int(w.Fd())).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	binding := s.Binding(Stdout)
	if _, err := binding.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if s.Binding(Stdout) != nil {
		t.Error("binding should be released after Close")
	}

	// Original descriptor still usable.
	if _, err := w.Write([]byte("y")); err != nil {
		t.Fatalf("original fd unusable after session close: %v", err)
	}
	w.Close()
	if got, _ := io.ReadAll(r); string(got) != "xy" {
		t.Errorf("pipe contents = %q, want %q", got, "xy")
	}
}

func TestCloseThroughLoop(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	loop := sched.NewLoop()
	s, err := NewBuilder("guest").
		WithStdoutFD(int(w.Fd())).
		WithLoop(loop).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := loop.Close(); err != nil {
		t.Fatalf("loop Close: %v", err)
	}
}

func TestCloseAfterLoopClosed(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	loop := sched.NewLoop()
	s, err := NewBuilder("guest").
		WithStdoutFD(int(w.Fd())).
		WithLoop(loop).
		Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Bindings must still be released when the loop is already gone.
	if err := loop.Close(); err != nil {
		t.Fatalf("loop Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.Binding(Stdout) != nil {
		t.Error("binding should be released even with a closed loop")
	}
}

//go:build unix

package main

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-embed/testbed"
)

// Guest output larger than a pipe buffer must not wedge the run: the pipes
// are drained while the guest writes.
func TestRunModuleLargeOutput(t *testing.T) {
	msg := strings.Repeat("x", 70_000)

	m := newInteractiveModel("large.wasm")
	m.binary = testbed.WriteStdout(msg)

	done := make(chan tea.Msg, 1)
	go func() { done <- m.runModule() }()

	var got tea.Msg
	select {
	case got = <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("runModule did not return; guest blocked writing to an undrained pipe")
	}

	ran, ok := got.(ranMsg)
	if !ok {
		t.Fatalf("runModule returned %T, want ranMsg", got)
	}
	if ran.exitCode != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr: %s)", ran.exitCode, ran.stderr)
	}
	if len(ran.stdout) != len(msg) {
		t.Errorf("captured %d bytes of stdout, want %d", len(ran.stdout), len(msg))
	}
}

func TestRunModuleReportsGuestExitCode(t *testing.T) {
	m := newInteractiveModel("exit.wasm")
	m.binary = testbed.ProcExit(6)

	ran, ok := m.runModule().(ranMsg)
	if !ok {
		t.Fatal("runModule did not return a ranMsg")
	}
	if ran.exitCode != 6 {
		t.Errorf("exit code = %d, want 6", ran.exitCode)
	}
}

//go:build unix

package wasmembed_test

import (
	"context"
	"testing"

	wasmembed "github.com/wippyai/wasm-embed"
	"github.com/wippyai/wasm-embed/runner"
	"github.com/wippyai/wasm-embed/session"
	"github.com/wippyai/wasm-embed/testbed"
)

func TestVersionIndependentOfExecutions(t *testing.T) {
	if wasmembed.Version == "" {
		t.Fatal("Version must not be empty")
	}
	before := wasmembed.Version

	// Executions, successful or not, must not affect the reported version.
	for _, binary := range [][]byte{testbed.StartReturns(), testbed.Trap(), nil} {
		runner.Execute(context.Background(), runner.Options{
			Binary:   binary,
			StdinFD:  session.UnboundFD,
			StdoutFD: session.UnboundFD,
			StderrFD: session.UnboundFD,
		})
	}

	if wasmembed.Version != before {
		t.Errorf("Version changed across executions: %q", wasmembed.Version)
	}
}

//go:build unix

package main

import (
	"testing"
	"unsafe"

	"github.com/wippyai/wasm-embed/runner"
	"github.com/wippyai/wasm-embed/session"
	"github.com/wippyai/wasm-embed/testbed"
)

func TestBoundaryPointerContract(t *testing.T) {
	bin := testbed.StartReturns()
	module := unsafe.Pointer(&bin[0])
	length := uint64(len(bin))

	tests := []struct {
		name     string
		module   unsafe.Pointer
		length   uint64
		haveArgv bool
		want     int32
	}{
		{"null module", nil, length, true, runner.ExitSentinel},
		{"empty module", module, 0, true, runner.ExitSentinel},
		{"null argv with zero argc", module, length, false, runner.ExitSentinel},
		{"valid", module, length, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := executeBoundary(tt.module, tt.length, tt.haveArgv, nil,
				session.UnboundFD, session.UnboundFD, session.UnboundFD)
			if code != tt.want {
				t.Errorf("executeBoundary = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestBoundaryRunsReactor(t *testing.T) {
	bin := testbed.MainReturns(11)
	code := executeBoundary(unsafe.Pointer(&bin[0]), uint64(len(bin)), true,
		[]string{"one", "two"},
		session.UnboundFD, session.UnboundFD, session.UnboundFD)
	if code != 11 {
		t.Errorf("executeBoundary = %d, want 11", code)
	}
}

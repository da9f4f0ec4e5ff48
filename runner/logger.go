package runner

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/driver"
	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/session"
)

var (
	loggerMu sync.RWMutex
	logger   *zap.Logger
)

// Logger returns the pipeline logger. It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// SetLogger installs l for the whole pipeline: runner, engine, session, and
// driver diagnostics all flow to it.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()

	engine.SetLogger(l)
	session.SetLogger(l)
	driver.SetLogger(l)
}

// NewStderrLogger builds a console logger writing to the host's standard
// error stream. The C boundary and the CLI install it so guest diagnostics
// land where the host expects them.
func NewStderrLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

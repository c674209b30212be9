package runtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/host"
	"github.com/wippyai/wasm-bridge/store"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the runtime package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the runtime package's logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

// setLoggers points every package that logs at l.
func setLoggers(l *zap.Logger) {
	SetLogger(l)
	bind.SetLogger(l.Named("bind"))
	host.SetLogger(l.Named("host"))
	store.SetLogger(l.Named("store"))
}

package host

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/wire"
)

// Env is the "env" module: guest logging and abort.
type Env struct{}

func (Env) Namespace() string { return "env" }

func (Env) Register() map[string]any {
	return map[string]any{
		"print": envPrint,
		"abort": envAbort,
	}
}

func envPrint(msg wire.LentStr) {
	Logger().Info("guest", zap.String("msg", strings.Clone(string(msg))))
}

// envAbort logs the guest's abort and traps the calling instance.
func envAbort(msg, file wire.LentStr, line, col int32) {
	m, f := strings.Clone(string(msg)), strings.Clone(string(file))
	Logger().Error("guest abort",
		zap.String("msg", m),
		zap.String("file", f),
		zap.Int32("line", line),
		zap.Int32("col", col))
	panic(errors.New(errors.PhaseHost, errors.KindProtocol).
		Path(f).
		Detail("guest aborted at %d:%d: %s", line, col, m).
		Build())
}

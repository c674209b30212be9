package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
)

// Instance is a running guest. Calls on one instance must not overlap.
type Instance struct {
	module  *Module
	mod     api.Module
	session *Session
	closed  bool
}

func (i *Instance) Module() *Module { return i.module }

func (i *Instance) Session() *Session { return i.session }

// Store returns the value store the guest's handles refer to.
func (i *Instance) Store() *store.Store { return i.session.store }

// Call invokes an export with raw wire words.
func (i *Instance) Call(ctx context.Context, name string, words ...uint64) ([]uint64, error) {
	fn, err := i.export(name)
	if err != nil {
		return nil, err
	}
	i.session.alloc.setContext(ctx)
	res, err := fn.Call(ctx, words...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindProtocol, err, "call "+name)
	}
	return res, nil
}

// Bind points *fnPtr at a typed function calling the export name. See
// bind.Caller for the accepted func shapes.
func (i *Instance) Bind(name string, fnPtr any) error {
	fn, err := i.export(name)
	if err != nil {
		return err
	}
	return bind.NewCaller(i.session.Env()).Bind(fn, fnPtr)
}

func (i *Instance) export(name string) (api.Function, error) {
	if i.closed {
		return nil, errors.Released("call " + name)
	}
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	return fn, nil
}

// Close drops every handle the guest still holds, logging any leak, and
// closes the instance. Calling it again is a no-op.
func (i *Instance) Close(ctx context.Context) error {
	if i.closed {
		return nil
	}
	i.closed = true
	i.module.runtime.retire(i.session)
	return i.mod.Close(ctx)
}

// retire removes sess from the runtime, folds its counters into the metrics
// and closes its store. It returns how many handles were still live.
func (r *Runtime) retire(sess *Session) int {
	r.sessions.Delete(sess.name)
	stats := sess.store.Stats()
	leaked := sess.store.Close()
	r.metrics.retire(stats)
	if leaked > 0 {
		Logger().Warn("guest leaked handles",
			zap.String("instance", sess.name),
			zap.Int("leaked_handles", leaked))
	}
	return leaked
}

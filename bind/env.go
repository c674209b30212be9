package bind

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// Env is the per-instance state a thunk marshals against: guest memory, the
// guest allocator and the value store handles refer to.
type Env struct {
	wire.Env
	Store *store.Store
}

// EnvResolver finds the Env of the guest instance making a host call.
type EnvResolver func(ctx context.Context, mod api.Module) (Env, error)

// StaticEnv resolves every call to env.
func StaticEnv(env Env) EnvResolver {
	return func(context.Context, api.Module) (Env, error) {
		return env, nil
	}
}

package runtime

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// Session is the per-instance state host functions marshal against: the value
// store the guest's handles refer to, guest memory and the guest allocator.
// It is bound to the instance the first time the instance calls the host or
// when instantiation finishes, whichever comes first.
type Session struct {
	name   string
	store  *store.Store
	memory *guestMemory
	alloc  *guestAllocator
	once   sync.Once
}

func newSession(name string) *Session {
	return &Session{name: name, store: store.New()}
}

// Name is the wazero module name of the instance.
func (s *Session) Name() string { return s.name }

// Store returns the session's value store.
func (s *Session) Store() *store.Store { return s.store }

func (s *Session) attach(mod api.Module) {
	s.once.Do(func() {
		s.memory = &guestMemory{mem: mod.Memory()}
		s.alloc = newGuestAllocator(mod)
	})
}

// Env returns the marshaling environment. It is only complete once the
// session is attached.
func (s *Session) Env() bind.Env {
	return bind.Env{
		Env:   wire.Env{Memory: s.memory, Alloc: s.alloc},
		Store: s.store,
	}
}

// resolve is the bind.EnvResolver every host module is instantiated with.
func (r *Runtime) resolve(ctx context.Context, mod api.Module) (bind.Env, error) {
	sess, ok := r.sessions.Load(mod.Name())
	if !ok {
		return bind.Env{}, errors.NotFound(errors.PhaseRuntime, "session", mod.Name())
	}
	sess.attach(mod)
	sess.alloc.setContext(ctx)
	return sess.Env(), nil
}

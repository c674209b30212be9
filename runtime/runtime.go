package runtime

import (
	"context"
	"encoding/hex"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"lukechampine.com/blake3"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/errors"
)

// Runtime owns one wazero runtime with WASI and every host module installed.
// Guests loaded into it share the host modules; each instance gets its own
// Session.
type Runtime struct {
	rt       wazero.Runtime
	registry *bind.Registry
	sessions *xsync.Map[string, *Session]
	compiled *xsync.Map[[32]byte, wazero.CompiledModule]
	loads    singleflight.Group
	metrics  *collector
	cfg      Config
	seq      atomic.Uint64
}

func New(ctx context.Context, cfg Config) (*Runtime, error) {
	if cfg.Logger != nil {
		setLoggers(cfg.Logger)
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}

	rcfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := &Runtime{
		rt:       wazero.NewRuntimeWithConfig(ctx, rcfg),
		registry: registry,
		sessions: xsync.NewMap[string, *Session](),
		compiled: xsync.NewMap[[32]byte, wazero.CompiledModule](),
		cfg:      cfg,
	}

	if cfg.WASI {
		if err := instantiateWASI(ctx, r.rt); err != nil {
			_ = r.rt.Close(ctx)
			return nil, errors.Instantiation(err)
		}
	}
	if err := registry.Instantiate(ctx, r.rt, r.resolve); err != nil {
		_ = r.rt.Close(ctx)
		return nil, err
	}

	if cfg.Metrics != nil {
		r.metrics = newCollector(r)
		if err := cfg.Metrics.Register(r.metrics); err != nil {
			_ = r.rt.Close(ctx)
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindRegistration, err, "register metrics")
		}
	}

	Logger().Info("runtime ready",
		zap.Strings("modules", registry.Modules()),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.Bool("wasi", cfg.WASI))
	return r, nil
}

// Close drops every session still open and releases the wazero runtime.
func (r *Runtime) Close(ctx context.Context) error {
	for _, sess := range r.Sessions() {
		r.retire(sess)
	}
	if r.metrics != nil {
		r.cfg.Metrics.Unregister(r.metrics)
	}
	return r.rt.Close(ctx)
}

// Load compiles a guest and checks that every import it declares can be
// satisfied. Identical binaries are compiled once.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	key := blake3.Sum256(wasm)
	if c, ok := r.compiled.Load(key); ok {
		r.metrics.load("hit")
		return newModule(r, c, key), nil
	}

	v, err, _ := r.loads.Do(string(key[:]), func() (any, error) {
		if c, ok := r.compiled.Load(key); ok {
			return c, nil
		}
		c, err := r.rt.CompileModule(ctx, wasm)
		if err != nil {
			return nil, errors.Load("compile module", err)
		}
		if err := r.checkImports(c); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
		r.compiled.Store(key, c)
		Logger().Debug("compiled guest",
			zap.String("digest", hex.EncodeToString(key[:8])),
			zap.Int("bytes", len(wasm)))
		return c, nil
	})
	if err != nil {
		r.metrics.load("error")
		return nil, err
	}
	r.metrics.load("miss")
	return newModule(r, v.(wazero.CompiledModule), key), nil
}

// Sessions returns the sessions of the open instances.
func (r *Runtime) Sessions() []*Session {
	var out []*Session
	r.sessions.Range(func(_ string, sess *Session) bool {
		out = append(out, sess)
		return true
	})
	return out
}

package runtime

import (
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/wasm-bridge/bind"
	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/host"
)

// newRegistry registers the built-in modules and cfg.Hosts.
func newRegistry(cfg Config) (*bind.Registry, error) {
	r := bind.NewRegistry()
	hosts := append(host.Modules(cfg.hostConfig()), cfg.Hosts...)
	if err := host.Register(r, hosts...); err != nil {
		return nil, err
	}
	return r, nil
}

// Registry returns the host function registry.
func (r *Runtime) Registry() *bind.Registry {
	return r.registry
}

// Signatures returns "module#name" mapped to the WIT signature of every host
// function, sorted by key.
func (r *Runtime) Signatures() []HostFunc {
	sigs := r.registry.Signatures()
	out := make([]HostFunc, 0, len(sigs))
	for key, sig := range sigs {
		out = append(out, HostFunc{Key: key, Signature: sig.String()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// HostFunc is one importable host function.
type HostFunc struct {
	Key       string
	Signature string
}

// checkImports reports every function the guest imports that neither WASI
// nor a registered host module provides.
func (r *Runtime) checkImports(compiled wazero.CompiledModule) error {
	var missing []string
	for _, fn := range compiled.ImportedFunctions() {
		mod, name, ok := fn.Import()
		if !ok {
			continue
		}
		if mod == wasi_snapshot_preview1.ModuleName && r.cfg.WASI {
			continue
		}
		if !r.registry.Has(mod, name) {
			missing = append(missing, mod+"#"+name)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

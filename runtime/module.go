package runtime

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
)

// Module is a compiled guest. It can be instantiated any number of times.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
	digest   [32]byte
}

func newModule(r *Runtime, c wazero.CompiledModule, digest [32]byte) *Module {
	return &Module{runtime: r, compiled: c, digest: digest}
}

// Name is a short hex prefix of the module's BLAKE3 digest.
func (m *Module) Name() string {
	return hex.EncodeToString(m.digest[:6])
}

// Export is a function the guest exports, with its flat core signature.
type Export struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

func (e Export) String() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteString(valueTypes(e.Params))
	if len(e.Results) > 0 {
		b.WriteString(" -> ")
		b.WriteString(valueTypes(e.Results))
	}
	return b.String()
}

func valueTypes(ts []api.ValueType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// Exports lists the exported functions sorted by name.
func (m *Module) Exports() []Export {
	defs := m.compiled.ExportedFunctions()
	out := make([]Export, 0, len(defs))
	for name, def := range defs {
		out = append(out, Export{Name: name, Params: def.ParamTypes(), Results: def.ResultTypes()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Imports lists the imported functions as "module#name".
func (m *Module) Imports() []string {
	var out []string
	for _, fn := range m.compiled.ImportedFunctions() {
		if mod, name, ok := fn.Import(); ok {
			out = append(out, mod+"#"+name)
		}
	}
	return out
}

// Instantiate creates an instance with its own session. A reactor's
// _initialize export runs first and may already call the host.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	r := m.runtime
	name := fmt.Sprintf("%s-%d", m.Name(), r.seq.Add(1))
	sess := newSession(name)
	r.sessions.Store(name, sess)

	mcfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize").
		WithSysWalltime().
		WithSysNanotime()
	if r.cfg.Stdout != nil {
		mcfg = mcfg.WithStdout(r.cfg.Stdout)
	}
	if r.cfg.Stderr != nil {
		mcfg = mcfg.WithStderr(r.cfg.Stderr)
	}

	mod, err := r.rt.InstantiateModule(ctx, m.compiled, mcfg)
	if err != nil {
		r.retire(sess)
		return nil, errors.Instantiation(err)
	}
	sess.attach(mod)

	Logger().Debug("instantiated guest", zap.String("instance", name))
	return &Instance{module: m, mod: mod, session: sess}, nil
}

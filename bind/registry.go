package bind

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
)

// Host is a capability module. Its exported methods become the functions of
// the import module named by Namespace, in snake_case (CreateString becomes
// create_string).
type Host interface {
	Namespace() string
}

// ExplicitRegistrar lets a Host list its functions by wire name instead of
// relying on method name conversion.
type ExplicitRegistrar interface {
	Register() map[string]any
}

// Registry collects adapted host functions by import module.
type Registry struct {
	funcs map[string]map[string]*Func
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]map[string]*Func),
	}
}

// RegisterHost adapts every function of h. Nothing is registered if any of
// them has a shape that cannot cross the boundary.
func (r *Registry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseBind, "namespace cannot be empty")
	}

	handlers := make(map[string]any)
	if er, ok := h.(ExplicitRegistrar); ok {
		for name, fn := range er.Register() {
			handlers[name] = fn
		}
	} else {
		rv := reflect.ValueOf(h)
		rt := rv.Type()
		for i := range rt.NumMethod() {
			method := rt.Method(i)
			if !method.IsExported() || method.Name == "Namespace" {
				continue
			}
			handlers[toSnakeCase(method.Name)] = rv.Method(i).Interface()
		}
	}

	adapted := make(map[string]*Func, len(handlers))
	for name, fn := range handlers {
		f, err := NewFunc(name, fn)
		if err != nil {
			return errors.Registration(ns, name, err)
		}
		adapted[name] = f
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs[ns] == nil {
		r.funcs[ns] = make(map[string]*Func)
	}
	for name, f := range adapted {
		r.funcs[ns][name] = f
	}
	Logger().Debug("registered host module", zap.String("module", ns), zap.Int("funcs", len(adapted)))
	return nil
}

// RegisterFunc adapts a single function under module and name.
func (r *Registry) RegisterFunc(module, name string, fn any) error {
	if module == "" {
		return errors.InvalidInput(errors.PhaseBind, "namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseBind, "function name cannot be empty")
	}
	f, err := NewFunc(name, fn)
	if err != nil {
		return errors.Registration(module, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs[module] == nil {
		r.funcs[module] = make(map[string]*Func)
	}
	r.funcs[module][name] = f
	return nil
}

// Modules returns the registered import module names, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Funcs returns the functions of module sorted by name.
func (r *Registry) Funcs(module string) []*Func {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Func, 0, len(r.funcs[module]))
	for _, f := range r.funcs[module] {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *Func) int { return strings.Compare(a.name, b.name) })
	return out
}

// Lookup finds one registered function.
func (r *Registry) Lookup(module, name string) (*Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[module][name]
	return f, ok
}

// Has reports whether module#name is registered.
func (r *Registry) Has(module, name string) bool {
	_, ok := r.Lookup(module, name)
	return ok
}

// Instantiate builds one wazero host module per registered import module.
// Modules already present in rt are left alone. resolve supplies the Env of
// whichever guest instance is calling.
func (r *Registry) Instantiate(ctx context.Context, rt wazero.Runtime, resolve EnvResolver) error {
	for _, ns := range r.Modules() {
		if rt.Module(ns) != nil {
			continue
		}
		builder := rt.NewHostModuleBuilder(ns)
		for _, f := range r.Funcs(ns) {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(f.GoModuleFunc(resolve), f.ParamTypes(), f.ResultTypes()).
				Export(f.name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.Instantiation(err)
		}
		Logger().Debug("instantiated host module", zap.String("module", ns))
	}
	return nil
}

// Signatures returns "module#name" mapped to the WIT signature of every
// registered function.
func (r *Registry) Signatures() map[string]Signature {
	out := make(map[string]Signature)
	for _, ns := range r.Modules() {
		for _, f := range r.Funcs(ns) {
			out[ns+"#"+f.name] = f.Signature()
		}
	}
	return out
}

// toSnakeCase converts PascalCase to snake_case.
// Handles acronyms: GetHTTPStatus -> get_http_status
func toSnakeCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('_')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

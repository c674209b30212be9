package bind

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/wire"
)

type inject uint8

const (
	injectNone inject = iota
	injectCtx
	injectStore
)

type param struct {
	codec  *codec
	inject inject
	name   string
}

// Func is a Go function adapted to the word-level boundary. Build it once
// with NewFunc; Call and GoModuleFunc are safe for concurrent use.
type Func struct {
	name     string
	fn       reflect.Value
	params   []param
	results  []*codec
	fallible bool
	argsPool sync.Pool
	flatIn   []api.ValueType
	flatOut  []api.ValueType
}

// NewFunc validates fn and builds its adapter. It fails closed: any parameter
// or result shape that cannot cross the boundary is a Registration error.
func NewFunc(name string, fn any) (*Func, error) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", fn)).
			Detail("handler must be a function").
			Build()
	}
	if rv.IsNil() {
		return nil, errors.InvalidInput(errors.PhaseBind, "handler is nil")
	}

	sh, err := shapeOf(rv.Type())
	if err != nil {
		return nil, err
	}

	f := &Func{
		name:     name,
		fn:       rv,
		params:   sh.params,
		results:  sh.results,
		fallible: sh.fallible,
		flatIn:   sh.flatIn,
		flatOut:  sh.flatOut,
	}
	numIn := len(sh.params)
	f.argsPool.New = func() any {
		s := make([]reflect.Value, numIn)
		return &s
	}
	return f, nil
}

// Name returns the export name the function was built with.
func (f *Func) Name() string { return f.name }

// ParamTypes returns the flattened wasm parameter types.
func (f *Func) ParamTypes() []api.ValueType { return f.flatIn }

// ResultTypes returns the flattened wasm result types.
func (f *Func) ResultTypes() []api.ValueType { return f.flatOut }

// Call runs the adapter against a wasm value stack. Parameters are read from
// stack and results written back from index 0. An error means a marshaling
// fault; errors returned by the Go function itself never surface here.
func (f *Func) Call(ctx context.Context, env Env, stack []uint64) error {
	if need := max(len(f.flatIn), len(f.flatOut)); len(stack) < need {
		return errors.New(errors.PhaseBind, errors.KindInvalidInput).
			Detail("%s: stack has %d slots, need %d", f.name, len(stack), need).
			Build()
	}

	argsPtr := f.argsPool.Get().(*[]reflect.Value)
	args := *argsPtr
	var anchors []*wire.Anchor
	defer func() {
		for _, a := range anchors {
			a.Release()
		}
		var zero reflect.Value
		for i := range args {
			args[i] = zero
		}
		f.argsPool.Put(argsPtr)
	}()

	idx := 0
	for i, p := range f.params {
		switch p.inject {
		case injectCtx:
			args[i] = reflect.ValueOf(ctx)
			continue
		case injectStore:
			if env.Store == nil {
				return errors.New(errors.PhaseBind, errors.KindNotFound).
					Detail("%s: no value store for this call", f.name).
					Build()
			}
			args[i] = reflect.ValueOf(env.Store)
			continue
		}
		n := len(p.codec.flat)
		v, anchor, err := p.codec.lift(env, stack[idx:idx+n])
		if err != nil {
			return errors.New(errors.PhaseBind, errors.KindOf(err)).
				Path(f.name, p.name).
				GoType(p.codec.typ.String()).
				Cause(err).
				Build()
		}
		if anchor != nil {
			anchors = append(anchors, anchor)
		}
		args[i] = v
		idx += n
	}

	out := f.fn.Call(args)

	if f.fallible {
		if errv := out[len(out)-1]; !errv.IsNil() {
			err := errv.Interface().(error)
			Logger().Debug("host function failed",
				zap.String("func", f.name), zap.Error(err))
			ref := wire.FailedRef
			if env.Store != nil {
				ref = env.Store.Fail(err)
			}
			stack[0] = wire.Encode(ref)
			return nil
		}
		out = out[:len(out)-1]
	}

	idx = 0
	for i, c := range f.results {
		if err := c.lower(env, out[i], stack[idx:]); err != nil {
			return errors.New(errors.PhaseBind, errors.KindOf(err)).
				Path(f.name, fmt.Sprintf("result%d", i)).
				GoType(c.typ.String()).
				Cause(err).
				Build()
		}
		idx += len(c.flat)
	}
	return nil
}

// GoModuleFunc returns the wazero host function. resolve finds the calling
// instance's Env. Marshaling faults panic, which wazero turns into a trap of
// the guest call.
func (f *Func) GoModuleFunc(resolve EnvResolver) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		env, err := resolve(ctx, mod)
		if err != nil {
			Logger().Error("resolve call environment", zap.String("func", f.name), zap.Error(err))
			panic(err)
		}
		if err := f.Call(ctx, env, stack); err != nil {
			Logger().Warn("host call trapped", zap.String("func", f.name), zap.Error(err))
			panic(err)
		}
	}
}

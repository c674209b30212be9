package bind

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/wire"
)

// Caller builds typed Go functions that call guest exports. Arguments are
// lowered into the guest (ownership passes to the callee) and results are
// lifted back (owned buffers are copied out and freed).
type Caller struct {
	env Env
}

// NewCaller returns a Caller marshaling against env.
func NewCaller(env Env) *Caller {
	return &Caller{env: env}
}

// Bind points *fnPtr at a function calling fn. The func type may take a
// leading context.Context and must end with an error result, which reports
// traps, marshaling faults and a failure sentinel returned as wire.Ref.
//
//	var greet func(ctx context.Context, name string) (wire.Ref, error)
//	err := caller.Bind(inst.ExportedFunction("greet"), &greet)
func (c *Caller) Bind(fn api.Function, fnPtr any) error {
	if fn == nil {
		return errors.InvalidInput(errors.PhaseBind, "guest function is nil")
	}
	name := fn.Definition().Name()

	ptr := reflect.ValueOf(fnPtr)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() || ptr.Elem().Kind() != reflect.Func {
		return errors.New(errors.PhaseBind, errors.KindTypeMismatch).
			GoType(fmt.Sprintf("%T", fnPtr)).
			Expected("pointer to func").
			Build()
	}
	ft := ptr.Elem().Type()
	if ft.IsVariadic() {
		return errors.Unsupported(errors.PhaseBind, ft.String(), "variadic function")
	}

	numOut := ft.NumOut()
	if numOut == 0 || ft.Out(numOut-1) != errorType {
		return errors.Unsupported(errors.PhaseBind, ft.String(), "guest call without trailing error result")
	}

	hasCtx := ft.NumIn() > 0 && ft.In(0) == ctxType
	start := 0
	if hasCtx {
		start = 1
	}

	var args []*codec
	var flatIn []api.ValueType
	for i := start; i < ft.NumIn(); i++ {
		cd, err := codecFor(ft.In(i), dirResult)
		if err != nil {
			return errors.Registration("guest", name, err)
		}
		args = append(args, cd)
		flatIn = append(flatIn, cd.flat...)
	}

	var results []*codec
	var flatOut []api.ValueType
	for i := 0; i < numOut-1; i++ {
		t := ft.Out(i)
		switch t {
		case strViewType, bytesViewType, mutBytesType, lentType, lentStrType:
			return errors.Registration("guest", name,
				errors.Unsupported(errors.PhaseBind, t.String(), "borrowed view as result"))
		}
		cd, err := codecFor(t, dirParam)
		if err != nil {
			return errors.Registration("guest", name, err)
		}
		results = append(results, cd)
		flatOut = append(flatOut, cd.flat...)
	}

	def := fn.Definition()
	if !slices.Equal(def.ParamTypes(), flatIn) || !slices.Equal(def.ResultTypes(), flatOut) {
		return errors.Registration("guest", name, errors.TypeMismatch(errors.PhaseBind,
			flatString(def.ParamTypes(), def.ResultTypes()),
			flatString(flatIn, flatOut)))
	}

	stackSize := max(len(flatIn), len(flatOut))
	env := c.env

	impl := func(in []reflect.Value) []reflect.Value {
		out := make([]reflect.Value, numOut)
		fail := func(err error) []reflect.Value {
			for i := 0; i < numOut-1; i++ {
				out[i] = reflect.Zero(ft.Out(i))
			}
			out[numOut-1] = reflect.ValueOf(&err).Elem()
			return out
		}

		ctx := context.Background()
		if hasCtx && !in[0].IsNil() {
			ctx = in[0].Interface().(context.Context)
		}

		stack := make([]uint64, stackSize)
		idx := 0
		// reclaim frees the first n lowered arguments when the callee never
		// runs and so never takes them over.
		reclaim := func(n int) {
			at := 0
			for _, cd := range args[:n] {
				cd.reclaim(env, stack[at:])
				at += len(cd.flat)
			}
		}
		for i, cd := range args {
			if err := cd.lower(env, in[start+i], stack[idx:]); err != nil {
				reclaim(i)
				return fail(errors.New(errors.PhaseBind, errors.KindOf(err)).
					Path(name, fmt.Sprintf("arg%d", i)).
					Cause(err).
					Build())
			}
			idx += len(cd.flat)
		}

		if err := ctx.Err(); err != nil {
			reclaim(len(args))
			return fail(errors.Wrap(errors.PhaseBind, errors.KindProtocol, err, "call "+name))
		}
		if err := fn.CallWithStack(ctx, stack); err != nil {
			return fail(errors.Wrap(errors.PhaseBind, errors.KindProtocol, err, "call "+name))
		}

		idx = 0
		for i, cd := range results {
			n := len(cd.flat)
			v, _, err := cd.lift(env, stack[idx:idx+n])
			if err != nil {
				return fail(errors.New(errors.PhaseBind, errors.KindOf(err)).
					Path(name, fmt.Sprintf("result%d", i)).
					Cause(err).
					Build())
			}
			if cd.typ == refType {
				if ref := wire.Ref(v.Int()); ref.Failed() {
					return fail(errors.Protocol(name, int32(ref)))
				}
			}
			out[i] = v
			idx += n
		}
		out[numOut-1] = reflect.Zero(errorType)
		return out
	}

	ptr.Elem().Set(reflect.MakeFunc(ft, impl))
	return nil
}

func flatString(params, results []api.ValueType) string {
	s := "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(p)
	}
	s += ") -> ("
	for i, r := range results {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(r)
	}
	return s + ")"
}

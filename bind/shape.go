package bind

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
)

// shape is the validated marshaling plan for one function type. Plans are
// immutable and shared between every Func of the same type.
type shape struct {
	params   []param
	results  []*codec
	fallible bool
	flatIn   []api.ValueType
	flatOut  []api.ValueType
}

var shapes = xsync.NewMap[reflect.Type, *shape]()

func shapeOf(t reflect.Type) (*shape, error) {
	if sh, ok := shapes.Load(t); ok {
		return sh, nil
	}
	sh, err := buildShape(t)
	if err != nil {
		return nil, err
	}
	sh, _ = shapes.LoadOrStore(t, sh)
	return sh, nil
}

func buildShape(t reflect.Type) (*shape, error) {
	if t.IsVariadic() {
		return nil, errors.Unsupported(errors.PhaseBind, t.String(), "variadic function")
	}

	sh := &shape{
		params:  make([]param, t.NumIn()),
		flatIn:  []api.ValueType{},
		flatOut: []api.ValueType{},
	}
	for i := range t.NumIn() {
		in := t.In(i)
		p := param{name: fmt.Sprintf("arg%d", i)}
		switch in {
		case ctxType:
			p.inject = injectCtx
		case storeType:
			p.inject = injectStore
		default:
			c, err := codecFor(in, dirParam)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseBind, errors.KindUnsupported, err, p.name)
			}
			p.codec = c
			sh.flatIn = append(sh.flatIn, c.flat...)
		}
		sh.params[i] = p
	}

	numOut := t.NumOut()
	if numOut > 0 && t.Out(numOut-1) == errorType {
		sh.fallible = true
		if numOut != 2 {
			return nil, errors.Unsupported(errors.PhaseBind, t.String(), "error result must follow exactly one value")
		}
		ok := t.Out(0)
		if !storable(ok) {
			return nil, errors.Unsupported(errors.PhaseBind, ok.String(), "result")
		}
		sh.results = []*codec{storedCodec(ok)}
		sh.flatOut = flatI32
		return sh, nil
	}
	if numOut > 1 {
		return nil, errors.Unsupported(errors.PhaseBind, t.String(), "multiple results")
	}
	if numOut == 1 {
		out := t.Out(0)
		var c *codec
		if out == valueType {
			c = storedCodec(out)
		} else {
			var err error
			if c, err = codecFor(out, dirResult); err != nil {
				return nil, err
			}
		}
		sh.results = []*codec{c}
		sh.flatOut = c.flat
	}
	return sh, nil
}

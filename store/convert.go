package store

import (
	"reflect"
	"sort"

	"github.com/wippyai/wasm-bridge/errors"
)

// FromGo builds a floating Value from plain Go data. It accepts nil, *Value,
// bool, all integer and float kinds, string, []byte, slices and maps with
// string keys. Map keys are sorted so the result is deterministic.
func FromGo(x any) (*Value, error) {
	switch t := x.(type) {
	case nil:
		return NewNull(), nil
	case *Value:
		if t == nil {
			return NewNull(), nil
		}
		return t, nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case []byte:
		return NewBytes(t), nil
	case int64:
		return NewInt(t), nil
	case float64:
		return NewFloat(t), nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NewInt(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return NewFloat(rv.Float()), nil
	case reflect.String:
		return NewString(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NewNull(), nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return NewNull(), nil
		}
		arr := NewArray()
		for i := 0; i < rv.Len(); i++ {
			c, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			arr.Append(c)
		}
		return arr, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errors.Unsupported(errors.PhaseStore, rv.Type().String(), "map keys must be strings")
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		obj := NewObject()
		for _, k := range keys {
			c, err := FromGo(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, err
			}
			obj.SetField(k.String(), c)
		}
		return obj, nil
	}
	return nil, errors.Unsupported(errors.PhaseStore, rv.Type().String(), "no value store representation")
}

package host

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// JSON is the "json" module.
type JSON struct{}

func (JSON) Namespace() string { return "json" }

// Parse decodes one JSON document into a value tree. Object keys keep their
// document order. Malformed input becomes the failure sentinel.
func (JSON) Parse(data wire.Lent) (*store.Value, error) {
	return ParseJSON(data)
}

// Stringify encodes the value behind h as a JSON String value.
func (JSON) Stringify(s *store.Store, h wire.Ref) (*store.Value, error) {
	if h == wire.NullRef {
		return store.NewString("null"), nil
	}
	v, ok := s.Get(h)
	if !ok {
		return nil, deadHandle(h)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return store.NewBytes(b), nil
}

// ParseJSON decodes data into a floating value tree.
func ParseJSON(data []byte) (*store.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, errors.Encoding(errors.PhaseHost, data, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.PhaseHost, errors.KindEncoding).
			Detail("trailing data after JSON value").
			Build()
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*store.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return store.NewNull(), nil
	case bool:
		return store.NewBool(t), nil
	case string:
		return store.NewString(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return store.NewInt(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return store.NewFloat(f), nil
	case json.Delim:
		if t == '[' {
			arr := store.NewArray()
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(child)
			}
			_, err := dec.Token()
			return arr, err
		}
		obj := store.NewObject()
		for dec.More() {
			key, err := dec.Token()
			if err != nil {
				return nil, err
			}
			child, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.SetField(key.(string), child)
		}
		_, err := dec.Token()
		return obj, err
	}
	return nil, errors.New(errors.PhaseHost, errors.KindEncoding).Value(tok).Build()
}

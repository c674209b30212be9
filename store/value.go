package store

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/wasm-bridge/wire"
)

// Dropper is implemented by opaque payloads that hold external resources.
// Drop is called once, when the last reference to the owning Value goes away.
type Dropper interface {
	Drop()
}

// Value is a reference counted node in the store. References are held by
// handle slots and by containers. A freshly constructed Value is floating
// (zero references) until it is Put into a store or added to a container.
type Value struct {
	kind    wire.Kind
	refs    int32
	str     []byte
	i       int64
	f       float64
	isInt   bool
	b       bool
	obj     *object
	arr     []*Value
	payload any
}

type object struct {
	keys []string
	vals map[string]*Value
}

// NewNull returns a Null value.
func NewNull() *Value { return &Value{kind: wire.KindNull} }

// NewBool returns a Bool value.
func NewBool(b bool) *Value { return &Value{kind: wire.KindBool, b: b} }

// NewInt returns an integral Number.
func NewInt(i int64) *Value { return &Value{kind: wire.KindNumber, i: i, isInt: true} }

// NewFloat returns a floating point Number.
func NewFloat(f float64) *Value { return &Value{kind: wire.KindNumber, f: f} }

// NewString returns a String value holding a copy of s.
func NewString(s string) *Value { return &Value{kind: wire.KindString, str: []byte(s)} }

// NewBytes returns a String value holding raw bytes. The bytes are not
// validated; readers decide whether they must be UTF-8.
func NewBytes(b []byte) *Value {
	return &Value{kind: wire.KindString, str: bytes.Clone(b)}
}

// NewObject returns an empty insertion ordered Object.
func NewObject() *Value {
	return &Value{kind: wire.KindObject, obj: &object{vals: make(map[string]*Value)}}
}

// NewArray returns an empty Array.
func NewArray() *Value { return &Value{kind: wire.KindArray} }

// NewNode returns a Node value around a parsed document payload.
func NewNode(payload any) *Value { return &Value{kind: wire.KindNode, payload: payload} }

// NewOpaque returns a value of Kind Unknown around a host resource.
func NewOpaque(payload any) *Value { return &Value{kind: wire.KindUnknown, payload: payload} }

// Kind returns the value's kind tag.
func (v *Value) Kind() wire.Kind { return v.kind }

// Refs returns the current reference count.
func (v *Value) Refs() int32 { return v.refs }

// Payload returns the opaque payload of Node and Unknown values.
func (v *Value) Payload() any { return v.payload }

// IsInt reports whether a Number was created from an integer.
func (v *Value) IsInt() bool { return v.kind == wire.KindNumber && v.isInt }

// Bytes returns the raw content of a String value. The slice must not be modified.
func (v *Value) Bytes() []byte {
	if v.kind != wire.KindString {
		return nil
	}
	return v.str
}

// Str returns the content of a String value as a Go string.
func (v *Value) Str() string {
	return string(v.Bytes())
}

// Int coerces the value to an integer. Numbers truncate toward zero and
// saturate, Bools are 0 or 1, Strings are parsed. Anything else is 0.
func (v *Value) Int() int64 {
	switch v.kind {
	case wire.KindNumber:
		if v.isInt {
			return v.i
		}
		return saturate(v.f)
	case wire.KindBool:
		if v.b {
			return 1
		}
		return 0
	case wire.KindString:
		s := strings.TrimSpace(string(v.str))
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return saturate(f)
		}
	}
	return 0
}

// Float coerces the value to a float with the same rules as Int.
func (v *Value) Float() float64 {
	switch v.kind {
	case wire.KindNumber:
		if v.isInt {
			return float64(v.i)
		}
		return v.f
	case wire.KindBool:
		if v.b {
			return 1
		}
		return 0
	case wire.KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(string(v.str)), 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool coerces Numbers (non-zero) and Bools. Anything else is false.
func (v *Value) Bool() bool {
	switch v.kind {
	case wire.KindNumber:
		if v.isInt {
			return v.i != 0
		}
		return v.f != 0
	case wire.KindBool:
		return v.b
	}
	return false
}

func saturate(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// Len returns the element count of Arrays and Objects and the byte length of
// Strings.
func (v *Value) Len() int {
	switch v.kind {
	case wire.KindArray:
		return len(v.arr)
	case wire.KindObject:
		return len(v.obj.keys)
	case wire.KindString:
		return len(v.str)
	}
	return 0
}

// Index returns the i-th element of an Array, or nil.
func (v *Value) Index(i int) *Value {
	if v.kind != wire.KindArray || i < 0 || i >= len(v.arr) {
		return nil
	}
	return v.arr[i]
}

// Field returns the value stored under key in an Object, or nil.
func (v *Value) Field(key string) *Value {
	if v.kind != wire.KindObject {
		return nil
	}
	return v.obj.vals[key]
}

// Keys returns an Object's keys in insertion order.
func (v *Value) Keys() []string {
	if v.kind != wire.KindObject {
		return nil
	}
	return append([]string(nil), v.obj.keys...)
}

// Append adds child to an Array, taking a reference to it.
func (v *Value) Append(child *Value) {
	if v.kind != wire.KindArray {
		return
	}
	child.refs++
	v.arr = append(v.arr, child)
}

// SetField stores child under key in an Object, taking a reference to it and
// releasing any value it replaces.
func (v *Value) SetField(key string, child *Value) {
	if v.kind != wire.KindObject {
		return
	}
	child.refs++
	if old, ok := v.obj.vals[key]; ok {
		v.obj.vals[key] = child
		old.unref()
		return
	}
	v.obj.keys = append(v.obj.keys, key)
	v.obj.vals[key] = child
}

func (v *Value) setIndex(i int, child *Value) bool {
	if i < 0 || i >= len(v.arr) {
		return false
	}
	child.refs++
	old := v.arr[i]
	v.arr[i] = child
	old.unref()
	return true
}

func (v *Value) removeIndex(i int) {
	if i < 0 || i >= len(v.arr) {
		return
	}
	old := v.arr[i]
	v.arr = append(v.arr[:i], v.arr[i+1:]...)
	old.unref()
}

func (v *Value) removeField(key string) {
	old, ok := v.obj.vals[key]
	if !ok {
		return
	}
	delete(v.obj.vals, key)
	for i, k := range v.obj.keys {
		if k == key {
			v.obj.keys = append(v.obj.keys[:i], v.obj.keys[i+1:]...)
			break
		}
	}
	old.unref()
}

// unref drops one reference and frees the node, and recursively its children,
// when none remain.
func (v *Value) unref() {
	v.refs--
	if v.refs > 0 {
		return
	}
	switch v.kind {
	case wire.KindArray:
		for _, c := range v.arr {
			c.unref()
		}
		v.arr = nil
	case wire.KindObject:
		for _, k := range v.obj.keys {
			v.obj.vals[k].unref()
		}
		v.obj = &object{vals: map[string]*Value{}}
	}
	if d, ok := v.payload.(Dropper); ok {
		d.Drop()
	}
	v.payload = nil
}

// Export converts the value into plain Go data: nil, bool, int64, float64,
// string, []byte (non UTF-8 strings), []any and map[string]any. Node and
// Unknown values export their payload.
func (v *Value) Export() any {
	switch v.kind {
	case wire.KindNull:
		return nil
	case wire.KindBool:
		return v.b
	case wire.KindNumber:
		if v.isInt {
			return v.i
		}
		return v.f
	case wire.KindString:
		if utf8.Valid(v.str) {
			return string(v.str)
		}
		return bytes.Clone(v.str)
	case wire.KindArray:
		out := make([]any, len(v.arr))
		for i, c := range v.arr {
			out[i] = c.Export()
		}
		return out
	case wire.KindObject:
		out := make(map[string]any, len(v.obj.keys))
		for _, k := range v.obj.keys {
			out[k] = v.obj.vals[k].Export()
		}
		return out
	}
	return v.payload
}

// MarshalJSON renders the value as JSON, keeping object key order. Node and
// Unknown values render as null.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case wire.KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case wire.KindNumber:
		if v.isInt {
			buf.WriteString(strconv.FormatInt(v.i, 10))
			break
		}
		b, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case wire.KindString:
		b, err := json.Marshal(string(v.str))
		if err != nil {
			return err
		}
		buf.Write(b)
	case wire.KindArray:
		buf.WriteByte('[')
		for i, c := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := c.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case wire.KindObject:
		buf.WriteByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := v.obj.vals[k].writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

package bind

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// Field is a named, WIT-typed parameter.
type Field struct {
	Name string
	Type wit.Type
}

// Signature describes an adapted function in WIT terms. Injected parameters
// are omitted.
type Signature struct {
	Name    string
	Params  []Field
	Results []wit.Type
}

// Signature returns the WIT description of f.
func (f *Func) Signature() Signature {
	sig := Signature{Name: f.name}
	for _, p := range f.params {
		if p.codec == nil {
			continue
		}
		sig.Params = append(sig.Params, Field{Name: p.name, Type: p.codec.wit})
	}
	for _, c := range f.results {
		sig.Results = append(sig.Results, c.wit)
	}
	return sig
}

// String renders the signature in WIT syntax, e.g.
// "create_string: func(arg0: bytes) -> handle".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteString(": func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(TypeString(p.Type))
	}
	b.WriteByte(')')
	if len(s.Results) > 0 {
		b.WriteString(" -> ")
		b.WriteString(TypeString(s.Results[0]))
	}
	return b.String()
}

// TypeString renders a WIT type the way it is written in a WIT document.
func TypeString(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		if l, ok := v.Kind.(*wit.List); ok {
			return "list<" + TypeString(l.Type) + ">"
		}
		if inner, ok := v.Kind.(wit.Type); ok {
			return TypeString(inner)
		}
		return "typedef"
	case nil:
		return "_"
	}
	return fmt.Sprintf("%T", t)
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates which layer produced the error
type Phase string

const (
	PhaseWire    Phase = "wire"    // word and slice descriptor conversion
	PhaseHandle  Phase = "handle"  // handle projections and views
	PhaseStore   Phase = "store"   // far side value store
	PhaseBind    Phase = "bind"    // adapter generation and thunk calls
	PhaseHost    Phase = "host"    // capability modules
	PhaseRuntime Phase = "runtime" // engine and instance lifecycle
	PhaseLoad    Phase = "load"    // module loading
)

// Kind categorizes the error
type Kind string

const (
	KindNullValue     Kind = "null_value"
	KindTypeMismatch  Kind = "type_mismatch"
	KindEncoding      Kind = "encoding"
	KindProtocol      Kind = "protocol"
	KindReleased      Kind = "released"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindAllocation    Kind = "allocation"
	KindUnsupported   Kind = "unsupported"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindRegistration  Kind = "registration"
	KindInstantiation Kind = "instantiation"
	KindMissingImport Kind = "missing_import"
	KindInvalidData   Kind = "invalid_data"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	Expected string
	Actual   string
	Detail   string
	Path     []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	sep := ": "
	if e.Expected != "" || e.Actual != "" {
		b.WriteString(sep)
		b.WriteString("expected ")
		b.WriteString(orUnknown(e.Expected))
		b.WriteString(", got ")
		b.WriteString(orUnknown(e.Actual))
		sep = " - "
	}

	if e.GoType != "" {
		b.WriteString(sep)
		b.WriteString("Go type ")
		b.WriteString(e.GoType)
		sep = " - "
	}

	if e.Detail != "" {
		b.WriteString(sep)
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any error in err's chain is an *Error of the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInvalidData when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInvalidData
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Expected sets the expected kind or type
func (b *Builder) Expected(s string) *Builder {
	b.err.Expected = s
	return b
}

// Actual sets the observed kind or type
func (b *Builder) Actual(s string) *Builder {
	b.err.Actual = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// NullValue reports an operation attempted on a Null handle.
func NullValue(op string) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindNullValue,
		Detail: fmt.Sprintf("%s on null value", op),
	}
}

// TypeMismatch reports a kind tag that disagrees with the requested projection.
func TypeMismatch(phase Phase, expected, actual string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Expected: expected,
		Actual:   actual,
	}
}

// Encoding reports malformed bytes, such as invalid UTF-8.
func Encoding(phase Phase, data []byte, cause error) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	detail := "invalid UTF-8 sequence"
	if cause != nil {
		detail = "malformed input"
	}
	return &Error{
		Phase:  phase,
		Kind:   KindEncoding,
		Detail: fmt.Sprintf("%s: %x", detail, preview),
		Cause:  cause,
	}
}

// Protocol reports a boundary call that returned the failure sentinel.
func Protocol(op string, word int32) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindProtocol,
		Detail: fmt.Sprintf("%s returned failure sentinel %d", op, word),
		Value:  word,
	}
}

// Released reports use of a handle after it was released or moved.
func Released(op string) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindReleased,
		Detail: fmt.Sprintf("%s on released handle", op),
	}
}

// OutOfBounds reports a slice descriptor or index outside its range.
func OutOfBounds(phase Phase, offset, length, size uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) outside %d bytes", offset, offset+length, size),
		Value:  offset,
	}
}

// Allocation reports a guest allocator failure.
func Allocation(phase Phase, size uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Cause:  cause,
	}
}

// Unsupported creates an unsupported shape or operation error
func Unsupported(phase Phase, goType, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		GoType: goType,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(module, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseBind,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", module, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingImport represents a single unresolved guest import
type MissingImport struct {
	Module   string // e.g., "core"
	Function string // e.g., "create_string"
}

// MissingImportsError is returned when a guest imports functions no host module provides
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "module#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		mod, fn, _ := strings.Cut(imp, "#")
		result.Imports = append(result.Imports, MissingImport{
			Module:   mod,
			Function: fn,
		})
	}
	return result
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[load] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d host function(s):\n", len(e.Imports))

	byMod := make(map[string][]string)
	var order []string
	for _, imp := range e.Imports {
		if _, ok := byMod[imp.Module]; !ok {
			order = append(order, imp.Module)
		}
		byMod[imp.Module] = append(byMod[imp.Module], imp.Function)
	}

	for _, mod := range order {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, fn := range byMod[mod] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}

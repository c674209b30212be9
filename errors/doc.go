// Package errors provides structured error types for the wasm-bridge library.
//
// Errors are categorized by Phase (which layer failed) and Kind (error category).
// Handle projections use four kinds that callers are expected to branch on:
// KindNullValue, KindTypeMismatch, KindEncoding and KindProtocol.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseHandle, errors.KindTypeMismatch).
//		Expected("object").
//		Actual("string").
//		Detail("as_object").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseHandle, "object", "string")
//	err := errors.OutOfBounds(errors.PhaseWire, ptr, n, memSize)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches by kind alone, across phases.
package errors

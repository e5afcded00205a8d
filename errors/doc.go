// Package errors provides structured error types for the graphcodec library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the attribute path from
// the root of the walked graph, Go and declared type names, and a cause
// chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindDepthExceeded).
//		Path("order", "items", "[3]").
//		Detail("recursion depth %d exceeds limit %d", depth, limit).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseEncode, path, "chan int")
//	err := errors.Transport(cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

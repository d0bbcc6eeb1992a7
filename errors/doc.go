// Package errors provides structured error types for the host bridge.
//
// Errors are categorized by Phase (which adapter operation failed) and Kind
// (error category). The Error type carries the operation target (a header
// name, an attribute, a guest export), a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseWrite, errors.KindHostIO).
//		Target("response").
//		Cause(ioErr).
//		Detail("accepted %d of %d bytes", sent, total).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.HostIO(errors.PhaseRead, cause)
//	err := errors.Finalized(errors.PhaseFlush)
//
// Host-level failures are always reduced to one of these values; nothing in
// the adapter panics across the host boundary.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

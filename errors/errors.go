package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates which adapter operation produced the error
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // attribute or header lookup
	PhaseRead     Phase = "read"     // request entity read
	PhaseWrite    Phase = "write"    // chunk staging
	PhaseFlush    Phase = "flush"    // staged chunks to the host
	PhaseStatus   Phase = "status"   // status line
	PhaseHeader   Phase = "header"   // response header
	PhaseMapPath  Phase = "mappath"  // physical path remapping
	PhaseBind     Phase = "bind"     // per-request handle construction
	PhaseRegister Phase = "register" // module registration
	PhaseGuest    Phase = "guest"    // guest module compile/instantiate/call
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindHostIO        Kind = "host_io"
	KindAllocation    Kind = "allocation"
	KindFinalized     Kind = "finalized"
	KindCommitted     Kind = "committed"
	KindInvalidInput  Kind = "invalid_input"
	KindNotRegistered Kind = "not_registered"
	KindRegistration  Kind = "registration"
	KindMemory        Kind = "memory"
	KindTrap          Kind = "trap"
	KindNotFound      Kind = "not_found"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Target string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Target != "" {
		b.WriteString(" at ")
		b.WriteString(e.Target)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
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

// Target sets the operation target
func (b *Builder) Target(t string) *Builder {
	b.err.Target = t
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

// Convenience constructors for common error patterns

// HostIO wraps a failure reported by the host's read/write/flush primitive.
func HostIO(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindHostIO,
		Detail: "host I/O failed",
		Cause:  cause,
	}
}

// Finalized reports a write against a response whose final chunk was already sent.
func Finalized(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFinalized,
		Detail: "response body already finalized",
	}
}

// Committed reports a change the host can no longer apply because the
// status line and headers were already sent.
func Committed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCommitted,
		Target: what,
		Detail: "response headers already sent",
	}
}

// Allocation reports a failure to construct a per-request resource.
func Allocation(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Target: what,
		Detail: "failed to allocate",
		Cause:  cause,
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

// NotFound creates a not found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Target: name,
		Detail: fmt.Sprintf("%s not found", what),
	}
}

// MemoryFault reports a guest pointer/length pair outside linear memory.
func MemoryFault(offset, length uint32) *Error {
	return &Error{
		Phase:  PhaseGuest,
		Kind:   KindMemory,
		Detail: fmt.Sprintf("range [%d, %d) outside guest memory", offset, uint64(offset)+uint64(length)),
		Value:  offset,
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

// Package vmerr provides the structured error taxonomy used throughout the
// runtime: the runtime traps and exit codes plus the
// first-class language-level Error object distinguished by KindLanguageError.
package vmerr

import (
	"fmt"
	"strings"
)

// Phase indicates where in the runtime's lifecycle the error occurred.
type Phase string

const (
	PhaseLoad    Phase = "load"    // ingesting a ModuleBlob
	PhaseLink    Phase = "link"    // function register / globals wiring
	PhaseRuntime Phase = "runtime" // interpreter dispatch
	PhaseGC      Phase = "gc"      // collector phases
	PhaseNative  Phase = "native"  // native bridge marshalling
)

// Kind categorizes the error. One Kind per runtime exit code, plus
// KindLanguageError for the in-language Error object which is
// inert data and never unwinds a frame on its own.
type Kind string

const (
	KindSuccess            Kind = "success"
	KindDebugging          Kind = "debugging"
	KindPanic              Kind = "panic"
	KindStackOverflow      Kind = "stack_overflow"
	KindNullNativeFunction Kind = "null_native_function"
	KindBadBitCode         Kind = "bad_bitcode"
	KindOutOfMemory        Kind = "out_of_memory"
	KindDivZero            Kind = "div_zero"
	KindLanguageError      Kind = "language_error"
)

// Error is the structured error type used throughout the runtime.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface.
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

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by Phase and Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

// Path sets the field/frame path used for backtrace-style context.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Trap constructs one of the runtime-trap errors.
func Trap(kind Kind, detail string) *Error {
	return &Error{Phase: PhaseRuntime, Kind: kind, Detail: detail}
}

// StackOverflow reports the call-stack depth cap was exceeded (§4.7.1).
func StackOverflow(depth, max int) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindStackOverflow,
		Detail: fmt.Sprintf("call depth %d exceeds max %d", depth, max),
	}
}

// DivZero reports integer division/modulo by zero (§4.7.4).
func DivZero(path ...string) *Error {
	return &Error{Phase: PhaseRuntime, Kind: KindDivZero, Path: path}
}

// NullNativeFunction reports a call_val dispatch to an unregistered native
// (§4.7.1: "a null native pointer raises NullNativeFunction").
func NullNativeFunction(name string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindNullNativeFunction,
		Detail: fmt.Sprintf("native function %q has no registered implementation", name),
	}
}

// BadBitCode reports malformed bytecode encountered by the loader or the
// dispatch loop (unknown segment, operand out of range, truncated blob).
func BadBitCode(detail string) *Error {
	return &Error{Phase: PhaseLoad, Kind: KindBadBitCode, Detail: detail}
}

// Panic reports an unknown opcode (§4.7.5).
func Panic(opcode byte) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindPanic,
		Detail: fmt.Sprintf("unknown opcode 0x%02x", opcode),
	}
}

// OutOfMemory reports factory allocation failure.
func OutOfMemory(detail string) *Error {
	return &Error{Phase: PhaseGC, Kind: KindOutOfMemory, Detail: detail}
}

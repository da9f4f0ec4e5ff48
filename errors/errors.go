package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the execution pipeline the error occurred
type Phase string

const (
	PhaseValidate    Phase = "validate"    // binary header and input validation
	PhaseDecode      Phase = "decode"      // host argument decoding
	PhaseDescriptor  Phase = "descriptor"  // file descriptor duplication
	PhaseSession     Phase = "session"     // guest environment assembly
	PhaseInstantiate Phase = "instantiate" // module compilation and instantiation
	PhaseRun         Phase = "run"         // guest entry point execution
	PhaseFinalize    Phase = "finalize"    // session and instance teardown
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindBadHeader     Kind = "bad_header"
	KindInvalidUTF8   Kind = "invalid_utf8"
	KindDupFailed     Kind = "dup_failed"
	KindInstantiation Kind = "instantiation"
	KindNoEntryPoint  Kind = "no_entry_point"
	KindGuestTrap     Kind = "guest_trap"
	KindFinalization  Kind = "finalization"
	KindClosed        Kind = "closed"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

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

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// BadHeader creates a binary header validation error
func BadHeader(detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindBadHeader,
		Detail: detail,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error for a host-supplied argument
func InvalidUTF8(index int, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidUTF8,
		Detail: fmt.Sprintf("argument %d is not valid UTF-8: %x", index, preview),
	}
}

// DupFailed creates a descriptor duplication error
func DupFailed(fd int, cause error) *Error {
	return &Error{
		Phase:  PhaseDescriptor,
		Kind:   KindDupFailed,
		Detail: fmt.Sprintf("duplicate descriptor %d", fd),
		Cause:  cause,
	}
}

// Instantiation creates a module instantiation error
func Instantiation(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindInstantiation,
		Detail: detail,
		Cause:  cause,
	}
}

// GuestTrap creates a guest execution trap error
func GuestTrap(entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseRun,
		Kind:   KindGuestTrap,
		Detail: fmt.Sprintf("call %s", entry),
		Cause:  cause,
	}
}

// Finalization creates a teardown error. These are logged, never fatal.
func Finalization(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseFinalize,
		Kind:   KindFinalization,
		Detail: detail,
		Cause:  cause,
	}
}

// Closed creates an error for operations against an already-closed resource
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Wrap wraps an existing error with pipeline context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NoEntryPointError is returned when a module exports neither a command-style
// "_start" nor a reactor-style "main" function. Exports carries the names the
// module actually exports so callers can print a useful diagnostic.
type NoEntryPointError struct {
	Exports []string
}

func (e *NoEntryPointError) Error() string {
	var b strings.Builder
	b.WriteString("[instantiate] no_entry_point: module exports neither _start nor main")
	if len(e.Exports) > 0 {
		b.WriteString("; available exports:")
		for _, name := range e.Exports {
			b.WriteString("\n  - ")
			b.WriteString(name)
		}
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *NoEntryPointError) Is(target error) bool {
	_, ok := target.(*NoEntryPointError)
	return ok
}

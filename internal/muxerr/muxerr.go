// Package muxerr defines the error-kind taxonomy used across mux-media.
//
// Every fallible operation in the core returns a plain Go error; where the
// caller needs to distinguish "how should the process exit" from "what do I
// tell the user," it type-asserts to *Error and inspects Kind.
package muxerr

import "fmt"

// Kind is the semantic category of a failure, independent of its message.
type Kind int

const (
	// Unknown is the zero value: an error with no particular exit-code
	// contract, treated as a generic runtime failure (exit code 1).
	Unknown Kind = iota
	// Clap marks a command-line argument parse failure (exit code 2).
	Clap
	// InvalidValue marks a syntactically valid but semantically bad value,
	// e.g. an out-of-range disposition cap (exit code 2).
	InvalidValue
	// Ok is a sentinel for "the process should exit 0 right now," used by
	// --help, --version, --list-targets and friends so that early-exit
	// paths flow through the same error-return plumbing as failures.
	Ok
)

// Error wraps an underlying cause with a Kind and the process exit code
// that kind implies.
type Error struct {
	Kind Kind
	Code int
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (k Kind) String() string {
	switch k {
	case Clap:
		return "argument error"
	case InvalidValue:
		return "invalid value"
	case Ok:
		return "ok"
	default:
		return "error"
	}
}

// New builds an *Error of the given kind wrapping err, with the exit code
// the kind implies (Ok->0, Clap/InvalidValue->2, Unknown->1).
func New(kind Kind, err error) *Error {
	code := 1
	switch kind {
	case Ok:
		code = 0
	case Clap, InvalidValue:
		code = 2
	}
	return &Error{Kind: kind, Code: code, Err: err}
}

// Clapf builds a Clap-kind error from a format string.
func Clapf(format string, args ...any) *Error {
	return New(Clap, fmt.Errorf(format, args...))
}

// Invalidf builds an InvalidValue-kind error from a format string.
func Invalidf(format string, args ...any) *Error {
	return New(InvalidValue, fmt.Errorf(format, args...))
}

// ExitCode extracts the process exit code implied by err. A plain error
// (not *Error) is treated as Unknown (exit code 1); nil is exit code 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var me *Error
	if e, ok := err.(*Error); ok {
		me = e
		return me.Code
	}
	return 1
}

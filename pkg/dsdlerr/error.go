package dsdlerr

import "fmt"

// Error is the structured error type raised by every stage of the
// front-end.  It always carries a Kind, and, where known, a file path and
// a 1-based line number.
type Error struct {
	kind Kind
	path string
	line int
	msg  string
	// cause is set when this error wraps an internal, should-be-unreachable
	// failure; it is not part of the printed message unless Kind is
	// Internal.
	cause error
}

// New constructs an error with no location information.  Use At to attach
// a location when one is available.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, line: 0, msg: msg}
}

// Newf is a convenience wrapper around New that formats msg.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// At attaches file/line location information to an error, returning a new
// Error value (the original is left untouched). It is a no-op if the error
// already has a location, mirroring the builder's "attach on unwind" rule
// of §4.8: the innermost raise wins.
func (e *Error) At(path string, line int) *Error {
	if e.path != "" {
		return e
	}

	cp := *e
	cp.path = path
	cp.line = line

	return &cp
}

// WrapInternal wraps an unexpected error (one that should be unreachable)
// carrying a report URL so it can be triaged.
func WrapInternal(cause error) *Error {
	return &Error{
		kind:  Internal,
		msg:   "internal error: please file a report at https://github.com/cyphal-go/dsdl/issues",
		cause: cause,
	}
}

// Kind returns the taxonomy this error belongs to.
func (e *Error) Kind() Kind { return e.kind }

// Path returns the file path this error is associated with, or "" if none.
func (e *Error) Path() string { return e.path }

// Line returns the 1-based line number this error is associated with, or 0
// if none.
func (e *Error) Line() int { return e.line }

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// Error implements the error interface, formatting as "PATH:LINE: TEXT",
// "PATH: TEXT", or "TEXT" depending on what location information is known,
// per §7.
func (e *Error) Error() string {
	msg := e.msg
	if e.kind == Internal && e.cause != nil {
		msg += ": " + e.cause.Error()
	}

	switch {
	case e.path != "" && e.line > 0:
		return fmt.Sprintf("%s:%d: %s", e.path, e.line, msg)
	case e.path != "":
		return fmt.Sprintf("%s: %s", e.path, msg)
	default:
		return msg
	}
}

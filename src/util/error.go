// error.go defines the four fatal error kinds raised across the compiler's passes (spec.md §7):
// lex/parse errors reported by the frontend, type errors reported by the type checker, internal
// compile errors signaling a pass invariant violation, and not-implemented errors for syntactically
// recognized but unsupported constructs such as lambda/define.

package util

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind differentiates the four fatal error categories a pass may raise.
type Kind int

// CompileError is the fatal error type returned by every pass. It is never recovered locally: the
// pipeline aborts on the first error and surfaces it to the caller (spec.md §7).
type CompileError struct {
	Kind Kind
	Site string // file:line of the failed assertion, populated only for ErrCompile.
	msg  string
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	ErrLex Kind = iota
	ErrType
	ErrCompile
	ErrNotImplemented
)

var kindNames = [...]string{
	ErrLex:            "lex/parse error",
	ErrType:           "type error",
	ErrCompile:        "compile error",
	ErrNotImplemented: "not implemented",
}

// ---------------------
// ----- Functions -----
// ---------------------

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Site != "" {
		return fmt.Sprintf("%s: %s (at %s)", kindNames[e.Kind], e.msg, e.Site)
	}
	return fmt.Sprintf("%s: %s", kindNames[e.Kind], e.msg)
}

// NewTypeError returns a TypeError (spec.md §4.1) carrying a human readable message identifying
// the offending construct and the expected-vs-actual types.
func NewTypeError(format string, args ...interface{}) error {
	return &CompileError{Kind: ErrType, msg: fmt.Sprintf(format, args...)}
}

// NewLexError returns a lex/parse error (spec.md §7), wrapping whatever the external
// lexer/parser collaborator reported.
func NewLexError(format string, args ...interface{}) error {
	return &CompileError{Kind: ErrLex, msg: fmt.Sprintf(format, args...)}
}

// NewNotImplemented returns a NotImplemented error (spec.md §7) for a construct the compiler
// recognizes syntactically but does not lower, such as lambda or define.
func NewNotImplemented(construct string) error {
	return &CompileError{Kind: ErrNotImplemented, msg: fmt.Sprintf("%s is recognized but not lowered", construct)}
}

// Assert raises a CompileError, tagged with the call site, if cond is false. Passes call Assert
// liberally between stages to guard the invariants of §3; a failed assertion is itself the
// compile error, carrying the assertion site (spec.md §7).
func Assert(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	site := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		site = fmt.Sprintf("%s:%d", file, line)
	}
	panic(&CompileError{Kind: ErrCompile, Site: site, msg: fmt.Sprintf(format, args...)})
}

// Wrap attaches a compile-error cause chain to err using the offending pass's name, preserving err
// as the underlying cause (github.com/pkg/errors.Wrap) so the original assertion or lex/parse
// failure remains inspectable.
func Wrap(err error, pass string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "%s", pass)
}

// Recover, deferred with the address of a named error result, converts a *CompileError panic
// (such as a failed Assert) into that returned error. Any other panic value is re-raised.
// compiler.Run and typecheck.Check defer it.
func Recover(errp *error) {
	if r := recover(); r != nil {
		if ce, ok := r.(*CompileError); ok {
			*errp = ce
			return
		}
		panic(r)
	}
}

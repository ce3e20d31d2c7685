// Package nerrors defines the fatal error kinds produced by the NPS core
// (lexer, parser, linker, evaluator and simulator) and a SentraError-style
// wrapper that carries source location and an optional cause chain.
package nerrors

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Kind identifies one of the fatal error categories from the NPS core.
type Kind string

const (
	KindLex        Kind = "LexError"
	KindParse      Kind = "ParseError"
	KindUnresolved Kind = "UnresolvedIdentifier"
	KindDuplicate  Kind = "DuplicateMembrane"
	KindStructure  Kind = "BadStructure"
	KindEval       Kind = "EvalError"
	KindIO         Kind = "IoError"
)

// SourceLocation pinpoints where an error originated in the input file.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// NPSError is a fatal error carrying its kind, a message, an optional
// source location and an optional wrapped cause (added with pkg/errors so
// that %+v prints a full cause chain alongside a source-line trace).
type NPSError struct {
	Kind     Kind
	Message  string
	Location SourceLocation
	Cause    error
}

func (e *NPSError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	if e.Location.Line > 0 {
		if e.Location.File != "" {
			sb.WriteString(fmt.Sprintf(" (%s:%d", e.Location.File, e.Location.Line))
		} else {
			sb.WriteString(fmt.Sprintf(" (line %d", e.Location.Line))
		}
		if e.Location.Column > 0 {
			sb.WriteString(fmt.Sprintf(":%d", e.Location.Column))
		}
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *NPSError) Unwrap() error { return e.Cause }

func newErr(kind Kind, line, col int, format string, args ...interface{}) *NPSError {
	return &NPSError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Location: SourceLocation{Line: line, Column: col},
	}
}

// Lex reports an unrecognized character outside a comment.
func Lex(line int, got byte) *NPSError {
	return newErr(KindLex, line, 0, "unexpected character %q", got)
}

// Parse reports an unexpected token against an expectation.
func Parse(line, col int, expected, got string) *NPSError {
	return newErr(KindParse, line, col, "expected %s, got %q", expected, got)
}

// Unresolved reports an identifier that could not be found in a membrane's
// var/E set at link time.
func Unresolved(membrane, name string) *NPSError {
	return newErr(KindUnresolved, 0, 0, "membrane %q: unresolved identifier %q", membrane, name)
}

// Duplicate reports a membrane name that appears twice in H.
func Duplicate(name string) *NPSError {
	return newErr(KindDuplicate, 0, 0, "duplicate membrane %q in H", name)
}

// Structure reports a malformed bracket list (ascent above the root, etc).
func Structure(reason string) *NPSError {
	return newErr(KindStructure, 0, 0, "%s", reason)
}

// Eval reports a stack underflow or non-singleton residual from the
// postfix evaluator.
func Eval(format string, args ...interface{}) *NPSError {
	return newErr(KindEval, 0, 0, format, args...)
}

// IO wraps a filesystem or sink failure, keeping the underlying error in
// the cause chain (via pkg/errors.WithStack so a %+v print shows where the
// wrap happened, not just the message).
func IO(context string, cause error) *NPSError {
	return &NPSError{
		Kind:    KindIO,
		Message: context,
		Cause:   pkgerrors.WithStack(cause),
	}
}

// Is reports whether err is an *NPSError of the given kind.
func Is(err error, kind Kind) bool {
	var nerr *NPSError
	if errors.As(err, &nerr) {
		return nerr.Kind == kind
	}
	return false
}

// Package treeerr defines the error taxonomy exposed across pattern
// parsing, constraint evaluation, and matching.
package treeerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Use errors.Is against these; custom error types below
// wrap one of them via Unwrap so both forms work.
var (
	ErrMalformedPattern     = errors.New("malformed pattern")
	ErrBadMetacharacter     = errors.New("bad metacharacter")
	ErrEmptyPattern         = errors.New("empty pattern")
	ErrLooseWithoutChildren = errors.New("loose-children node has no children")
	ErrConstraintTypeError  = errors.New("constraint type error")
	ErrUnknownAttribute     = errors.New("unknown attribute")
)

// ParseError reports a compile-time failure in the pattern parser, with
// enough position information to point a caller at the offending text.
type ParseError struct {
	Sentinel error
	Msg      string
	Offset   int
	Snippet  string
}

func (e *ParseError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("%s at offset %d near %q", e.Msg, e.Offset, e.Snippet)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Sentinel }

// ConstraintTypeError is raised when an expression applies an operator to
// operands of incompatible kinds, or arithmetic to a missing numeric
// attribute. It propagates out of matching and aborts the whole query.
type ConstraintTypeError struct {
	Msg   string
	Cause error
}

func (e *ConstraintTypeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ConstraintTypeError) Unwrap() error { return ErrConstraintTypeError }

// ConstraintEvalError is raised for evaluation failures other than a type
// mismatch (e.g. an out-of-range children[i] index). It is absorbed: the
// node being tested simply fails to match, and the query continues.
type ConstraintEvalError struct {
	Msg   string
	Cause error
}

func (e *ConstraintEvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ConstraintEvalError) Unwrap() error { return e.Cause }

func NewConstraintEvalError(msg string, cause error) *ConstraintEvalError {
	return &ConstraintEvalError{Msg: msg, Cause: errors.WithStack(cause)}
}

func NewConstraintTypeError(msg string, cause error) *ConstraintTypeError {
	return &ConstraintTypeError{Msg: msg, Cause: cause}
}

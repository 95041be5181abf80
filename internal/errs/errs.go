// Package errs defines the error taxonomy shared by every tuplebase layer —
// storage, MVCC, and SQL. Each error carries a Kind so callers (the session glue
// in particular) can decide whether to retry, roll back, or surface the message
// verbatim to a client.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies an Error so callers can branch on failure category without
// string-matching messages.
type Kind int

const (
	// Internal covers type mismatches, missing columns, schema violations,
	// aggregate misuse, and evaluator states that should be unreachable.
	Internal Kind = iota
	// Parser marks a lexical or grammatical error. Never retried.
	Parser
	// TableExists marks a CREATE TABLE against a name already in the catalog.
	TableExists
	// TableNotFound marks a DDL/DML reference to an unknown table.
	TableNotFound
	// WriteConflict marks an MVCC write-write conflict. The transaction that
	// received it has already been left in a state that must be rolled back;
	// callers may retry the whole statement.
	WriteConflict
	// Encode marks a codec failure while serializing a key or row.
	Encode
	// Decode marks a codec failure while deserializing a key or row.
	Decode
	// Io marks an underlying storage failure (open, read, write, lock, rename).
	Io
	// NotSupported marks a grammar or plan path outside the supported subset.
	NotSupported
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case Parser:
		return "parser"
	case TableExists:
		return "table exists"
	case TableNotFound:
		return "table not found"
	case WriteConflict:
		return "write conflict"
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	case Io:
		return "io"
	case NotSupported:
		return "not supported"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every tuplebase package. It
// wraps an optional cause (via github.com/cockroachdb/errors, which preserves a
// stack trace and plays well with errors.Is/As) alongside a Kind and a
// human-readable message.
type Error struct {
	cause error
	msg   string
	Kind  Kind
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a Kind-tagged error around an existing cause, using
// cockroachdb/errors so the underlying stack trace survives for diagnostics.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// Is reports whether err is a tuplebase Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

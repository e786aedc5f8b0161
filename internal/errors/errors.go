// Package errors defines typed errors with categories for dialect translation
// and execution failures. Every error that leaves the execution layer carries a
// machine-readable Kind and, when a query was involved, both the source query
// and the translated query so that dialect drift can be diagnosed from the
// error alone.
//
// The package supports wrapping underlying driver errors while keeping the
// kind visible to errors.Is and errors.As.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// MalformedLiteral indicates an unterminated quoted literal. It is only
	// ever reported as a translation note, never returned as a failure.
	MalformedLiteral Kind = "malformed_literal"
	// ParameterCountMismatch indicates the driver rejected the query because
	// the placeholder count does not match the parameter count.
	ParameterCountMismatch Kind = "parameter_count_mismatch"
	// UnsupportedConstruct indicates a source construct the target engine
	// could not parse.
	UnsupportedConstruct Kind = "unsupported_construct"
	// ExecutionFailure covers every other driver error.
	ExecutionFailure Kind = "execution_failure"
	// Timeout indicates the round-trip exceeded its deadline or was cancelled
	// by the server.
	Timeout Kind = "timeout"
	// ConfigInvalid indicates unusable configuration.
	ConfigInvalid Kind = "config_invalid"
	// ConnectFailed indicates the database could not be reached.
	ConnectFailed Kind = "connect_failed"
)

// E wraps an error with kind, human-friendly message and query context.
type E struct {
	Kind    Kind
	Message string
	// Source is the query as the caller wrote it.
	Source string
	// Target is the query sent to the driver.
	Target string
	Err    error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

// Is matches another *E of the same kind, so errors.Is(err, New(Timeout, ""))
// works as a kind test.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	return ok && t.Kind == e.Kind
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// WithQueries attaches both query forms.
func (e *E) WithQueries(source, target string) *E {
	e.Source = source
	e.Target = target
	return e
}

// KindOf returns the kind of the first *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Queries returns the source and target query attached to err, if any.
func Queries(err error) (source, target string, ok bool) {
	var e *E
	if stderrors.As(err, &e) && (e.Source != "" || e.Target != "") {
		return e.Source, e.Target, true
	}
	return "", "", false
}

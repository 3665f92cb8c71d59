// Package journalerr classifies failures from chat extraction and
// configuration so callers can decide whether to skip a database, degrade
// to an empty result, or stop.
package journalerr

import (
	"errors"
	"fmt"

	"github.com/quillhq/commit-journal/internal/redact"
)

// Kind is the failure category.
type Kind string

const (
	// NotFound: no IDE databases, or a file disappeared between discovery
	// and read. Callers degrade to an empty result and continue.
	NotFound Kind = "not_found"
	// Access: permission denied or a locked database. Callers skip the
	// database and try the next one.
	Access Kind = "access"
	// Schema: an expected table or column is absent. Callers skip the
	// database.
	Schema Kind = "schema"
	// Query: SQL execution failed. Carries the statement and database path
	// for the log file; surfaced to callers as Access.
	Query Kind = "query"
	// Config: missing or invalid configuration. Fatal at init; at runtime
	// it short-circuits AI calls like an auth failure.
	Config Kind = "config"
)

// Error is a classified failure with a troubleshooting hint. Messages are
// sanitized: API keys and secret-shaped values never reach the caller.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "workspace.discover"
	Hint string // what the user can do about it
	Path string // file or database involved, when known
	SQL  string // failing statement, Query errors only
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + redact.MaskErr(e.Err)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error around err.
func New(kind Kind, op string, err error, hint string) *Error {
	return &Error{Kind: kind, Op: op, Err: err, Hint: hint}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op string, hint string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...), Hint: hint}
}

// KindOf reports the surface classification of err. Query errors report as
// Access; the raw kind stays available on the Error itself for logging.
// The second return value is false when err carries no classification.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	if e.Kind == Query {
		return Access, true
	}
	return e.Kind, true
}

// Is reports whether err is classified as kind, using the same surface
// mapping as KindOf.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Package outcome provides the standardized error taxonomy for the query
// engine. Every layer below the HTTP/tool boundary returns errors tagged
// with a Kind; only the boundary translates kinds into wire shapes.
package outcome

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for handling purposes.
type Kind int

const (
	// Unknown is an unclassified internal failure.
	Unknown Kind = iota
	// InvalidArgument marks malformed or missing input. Not retryable.
	InvalidArgument
	// NotFound marks an absent CUI, code or hierarchy row set.
	NotFound
	// NoCommonAncestor marks a legitimate graph outcome: two concepts in
	// disjoint hierarchy trees. Distinct from NotFound.
	NoCommonAncestor
	// Timeout marks a request that exceeded its budget. Safe to retry.
	Timeout
	// ResourceExceeded marks a traversal that hit its bounded-work limit.
	// Retrying without narrowing the query will not help.
	ResourceExceeded
	// StoreUnavailable marks a connectivity failure. Retryable with backoff.
	StoreUnavailable
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case NoCommonAncestor:
		return "no_common_ancestor"
	case Timeout:
		return "timeout"
	case ResourceExceeded:
		return "resource_exceeded"
	case StoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its Kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a tagged error. If err is already tagged, its kind is preserved
// and only the operation trail grows.
func E(kind Kind, op string, err error) error {
	var oe *Error
	if errors.As(err, &oe) {
		kind = oe.Kind
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a tagged error from a format string.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from an error chain, classifying well-known
// stdlib and driver errors along the way.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound
	}
	if isConnectivity(err) {
		return StoreUnavailable
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// isConnectivity catches driver-level failures that never reached the
// database, which callers may retry with backoff.
func isConnectivity(err error) bool {
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"database is locked",
		"unable to open database",
		"connection refused",
		"connection reset",
		"broken pipe",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure an operation can produce carries a machine-readable Kind, a
// human-friendly message and, where relevant, the operation and parameter it
// concerns. The Kind also determines the process exit status.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// MissingConfiguration indicates a required credential was not provided.
	MissingConfiguration Kind = "missing_configuration"
	// UnknownOperation indicates the requested operation is not registered.
	UnknownOperation Kind = "unknown_operation"
	// InvalidParameter indicates a parameter was missing or failed coercion.
	InvalidParameter Kind = "invalid_parameter"
	// NotFound indicates an expected-single-row lookup found nothing.
	NotFound Kind = "not_found"
	// BackendError indicates the datastore or sync collaborator reported an error.
	BackendError Kind = "backend_error"
	// DeleteFailed indicates the datastore rejected a delete request.
	DeleteFailed Kind = "delete_failed"
	// SyncFailed indicates the sync collaborator answered with success=false.
	SyncFailed Kind = "sync_failed"
)

// Exit codes, one per family of Kind.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitConfigError  = 2
	ExitUsageError   = 3
	ExitNotFound     = 4
	ExitBackendError = 5
	ExitSyncFailed   = 6
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind      Kind
	Message   string
	Operation string
	Param     string
	Err       error
}

func (e *E) Error() string {
	prefix := string(e.Kind)
	if e.Operation != "" {
		prefix = e.Operation + ": " + prefix
	}
	if e.Param != "" {
		prefix += " " + fmt.Sprintf("%q", e.Param)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Param builds an InvalidParameter error for the named parameter.
func Param(name, reason string) *E {
	return &E{Kind: InvalidParameter, Param: name, Message: reason}
}

// WithOperation returns a copy of e annotated with the operation name.
func (e *E) WithOperation(op string) *E {
	c := *e
	c.Operation = op
	return &c
}

// As extracts an *E from err's chain.
func As(err error) (*E, bool) {
	var e *E
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch KindOf(err) {
	case MissingConfiguration:
		return ExitConfigError
	case UnknownOperation, InvalidParameter:
		return ExitUsageError
	case NotFound:
		return ExitNotFound
	case BackendError, DeleteFailed:
		return ExitBackendError
	case SyncFailed:
		return ExitSyncFailed
	default:
		return ExitError
	}
}

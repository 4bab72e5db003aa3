// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "plain error", err: stderrors.New("boom"), want: ExitError},
		{name: "missing configuration", err: New(MissingConfiguration, "x"), want: ExitConfigError},
		{name: "unknown operation", err: New(UnknownOperation, "x"), want: ExitUsageError},
		{name: "invalid parameter", err: Param("table", "required"), want: ExitUsageError},
		{name: "not found", err: New(NotFound, "x"), want: ExitNotFound},
		{name: "backend", err: New(BackendError, "x"), want: ExitBackendError},
		{name: "delete failed", err: New(DeleteFailed, "x"), want: ExitBackendError},
		{name: "sync failed", err: New(SyncFailed, "x"), want: ExitSyncFailed},
		{name: "wrapped kind", err: fmt.Errorf("ctx: %w", New(NotFound, "x")), want: ExitNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Param("limit", "expected an integer").WithOperation("list")
	want := `list: invalid_parameter "limit": expected an integer`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(BackendError, "select failed", stderrors.New("relation does not exist"))
	if !stderrors.Is(wrapped, wrapped.Err) {
		t.Errorf("Unwrap() should expose the underlying error")
	}
	if !Is(wrapped, BackendError) {
		t.Errorf("Is() = false, want true")
	}
}

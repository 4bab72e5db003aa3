// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"

	"github.com/pterm/pterm"
)

// New returns a structured logger writing to w. Verbose enables debug lines;
// otherwise only warnings and errors are emitted.
func New(w io.Writer, verbose bool) *pterm.Logger {
	level := pterm.LogLevelWarn
	if verbose {
		level = pterm.LogLevelDebug
	}
	return pterm.DefaultLogger.
		WithLevel(level).
		WithWriter(w).
		WithTime(false)
}

// Nop returns a logger that discards everything.
func Nop() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}

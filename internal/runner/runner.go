// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package runner resolves maintenance operations by name, validates their
// parameters and executes them against the injected collaborators.
//
// Parameter validation completes before an operation's Execute func is
// called, so a rejected invocation never touches the datastore. The runner
// never retries: every error is returned to the caller as an *errors.E
// annotated with the operation name.
package runner

import (
	"context"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/logging"
	"inventoryops/cli/internal/marketsync"
)

// Deps are the collaborators an operation may use. Store and Sync are
// constructed once per process and shared by every operation.
type Deps struct {
	Store datastore.Client
	// Sync is nil when no sync collaborator is configured.
	Sync marketsync.Syncer
	Log  *pterm.Logger
}

// Result is the outcome of a successful run.
type Result struct {
	Operation string        `json:"operation" yaml:"operation"`
	Kind      Kind          `json:"kind" yaml:"kind"`
	Payload   any           `json:"result" yaml:"result"`
	Elapsed   time.Duration `json:"-" yaml:"-"`
}

// Runner executes registered operations.
type Runner struct {
	reg  *Registry
	deps Deps
}

// New creates a runner over reg.
func New(reg *Registry, deps Deps) *Runner {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	return &Runner{reg: reg, deps: deps}
}

// Registry returns the runner's registry.
func (r *Runner) Registry() *Registry { return r.reg }

// Run validates raw against the named operation and executes it.
func (r *Runner) Run(ctx context.Context, name string, raw map[string][]string) (*Result, error) {
	op, ok := r.reg.Lookup(name)
	if !ok {
		return nil, apperrors.New(apperrors.UnknownOperation, "no operation named "+strconv.Quote(name)).WithOperation(name)
	}

	params, err := bind(op, raw)
	if err != nil {
		return nil, annotate(err, name)
	}

	log := r.deps.Log
	log.Debug("running operation", log.Args("operation", name, "kind", string(op.Kind)))

	start := time.Now()
	payload, err := op.Execute(ctx, params, r.deps)
	elapsed := time.Since(start)
	if err != nil {
		log.Debug("operation failed", log.Args("operation", name, "elapsed", elapsed, "error", logging.Mask(err.Error())))
		return nil, annotate(err, name)
	}
	log.Debug("operation complete", log.Args("operation", name, "elapsed", elapsed))

	return &Result{Operation: name, Kind: op.Kind, Payload: payload, Elapsed: elapsed}, nil
}

// annotate ensures err is an *errors.E carrying the operation name.
// Untyped errors come from collaborators and are reported as backend errors.
func annotate(err error, op string) error {
	if e, ok := apperrors.As(err); ok {
		if e.Operation != "" {
			return e
		}
		return e.WithOperation(op)
	}
	return apperrors.Wrap(apperrors.BackendError, "operation failed", err).WithOperation(op)
}

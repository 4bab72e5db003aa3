// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Kind classifies what an operation does to the datastore.
type Kind string

const (
	KindRead   Kind = "read"
	KindWrite  Kind = "write"
	KindInvoke Kind = "invoke-external"
)

// ExecuteFunc runs an operation with validated parameters.
type ExecuteFunc func(ctx context.Context, p Params, d Deps) (any, error)

// Operation is a named, declared unit of maintenance work.
type Operation struct {
	Name    string
	Summary string
	Kind    Kind
	Params  []ParamSpec
	Execute ExecuteFunc
}

// Param returns the declared spec for name.
func (o *Operation) Param(name string) (ParamSpec, bool) {
	for _, p := range o.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Registry holds operations by name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*Operation)}
}

// Register adds op. Names are unique.
func (r *Registry) Register(op *Operation) error {
	if op == nil || op.Name == "" {
		return fmt.Errorf("operation needs a name")
	}
	if op.Execute == nil {
		return fmt.Errorf("operation %q has no Execute func", op.Name)
	}
	seen := map[string]bool{}
	for _, p := range op.Params {
		if seen[p.Name] {
			return fmt.Errorf("operation %q declares parameter %q twice", op.Name, p.Name)
		}
		seen[p.Name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ops[op.Name]; dup {
		return fmt.Errorf("operation %q already registered", op.Name)
	}
	r.ops[op.Name] = op
	return nil
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (*Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Names returns registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for n := range r.ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Operations returns registered operations sorted by name.
func (r *Registry) Operations() []*Operation {
	names := r.Names()
	out := make([]*Operation, 0, len(names))
	for _, n := range names {
		op, _ := r.Lookup(n)
		out = append(out, op)
	}
	return out
}

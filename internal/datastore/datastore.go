// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package datastore defines the narrow read/write surface the maintenance
// operations need from a hosted table store, together with the row and
// predicate types shared by every backend implementation.
//
// Backends live elsewhere: backend (database-as-a-service REST API),
// sqlexec (direct Postgres) and sqlitestore (local SQLite file).
package datastore

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Client is the datastore collaborator. Each call is one round trip.
type Client interface {
	// Select returns matching rows in the backend's native order.
	Select(ctx context.Context, q SelectQuery) ([]*Row, error)
	// Delete removes rows matching the predicate and returns how many were affected.
	Delete(ctx context.Context, q DeleteQuery) (int64, error)
	Close() error
}

// SelectQuery describes a projected, filtered read.
type SelectQuery struct {
	Table   string
	Columns []string // empty means all columns
	Where   []Predicate
	Limit   int // zero means no limit
}

// DeleteQuery describes a single filtered delete.
type DeleteQuery struct {
	Table string
	Where Predicate
}

// Op is a predicate operator.
type Op string

const (
	OpIsNull    Op = "is-null"
	OpIsNotNull Op = "is-not-null"
	OpEq        Op = "eq"
	OpNeq       Op = "neq"
	OpGt        Op = "gt"
	OpGte       Op = "gte"
	OpLt        Op = "lt"
	OpLte       Op = "lte"
	OpLike      Op = "like"
)

var knownOps = map[Op]bool{
	OpIsNull: true, OpIsNotNull: true, OpEq: true, OpNeq: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpLike: true,
}

// NeedsValue reports whether the operator compares against a value.
func (o Op) NeedsValue() bool {
	return o != OpIsNull && o != OpIsNotNull
}

// Valid reports whether o is a supported operator.
func (o Op) Valid() bool { return knownOps[o] }

// Predicate is one column-operator-value condition. Predicates in a query are ANDed.
type Predicate struct {
	Column string `json:"column" yaml:"column"`
	Op     Op     `json:"op" yaml:"op"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
}

func (p Predicate) String() string {
	if p.Op.NeedsValue() {
		return p.Column + ":" + string(p.Op) + ":" + p.Value
	}
	return p.Column + ":" + string(p.Op)
}

// Validate checks the column and operator/value combination.
func (p Predicate) Validate() error {
	if err := ValidateIdentifier(p.Column); err != nil {
		return err
	}
	if !p.Op.Valid() {
		return fmt.Errorf("unsupported operator %q", p.Op)
	}
	if p.Op.NeedsValue() && p.Value == "" {
		return fmt.Errorf("operator %q requires a value", p.Op)
	}
	if !p.Op.NeedsValue() && p.Value != "" {
		return fmt.Errorf("operator %q takes no value", p.Op)
	}
	return nil
}

// ParsePredicate parses "column:op" or "column:op:value". The value may itself contain colons.
func ParsePredicate(s string) (Predicate, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return Predicate{}, fmt.Errorf("predicate %q must look like column:op[:value]", s)
	}
	p := Predicate{Column: strings.TrimSpace(parts[0]), Op: Op(strings.ToLower(strings.TrimSpace(parts[1])))}
	if len(parts) == 3 {
		p.Value = parts[2]
	}
	if err := p.Validate(); err != nil {
		return Predicate{}, err
	}
	return p, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateIdentifier accepts plain or schema-qualified table and column names.
func ValidateIdentifier(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%q is not a valid identifier", name)
	}
	return nil
}

// BackendError is a structured error reported by the datastore.
type BackendError struct {
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message" yaml:"message"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
	Hint    string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

func (e *BackendError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString(" (")
		b.WriteString(e.Details)
		b.WriteString(")")
	}
	return b.String()
}

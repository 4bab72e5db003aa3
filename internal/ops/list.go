// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"
	"errors"

	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/runner"
)

// ListReport holds the matching rows in the datastore's order.
type ListReport struct {
	Table   string                `json:"table" yaml:"table"`
	Columns []string              `json:"columns,omitempty" yaml:"columns,omitempty"`
	Where   []datastore.Predicate `json:"where,omitempty" yaml:"where,omitempty"`
	Count   int                   `json:"count" yaml:"count"`
	Rows    []*datastore.Row      `json:"rows" yaml:"rows"`
}

func limitParam() runner.ParamSpec {
	return runner.ParamSpec{
		Name: "limit", Type: runner.TypeInt, Help: "maximum rows to return (default: all)",
		Check: func(v any) error {
			if v.(int) < 1 {
				return errors.New("must be at least 1")
			}
			return nil
		},
	}
}

// List returns rows matching every predicate, projected onto the selected columns.
func List() *runner.Operation {
	return &runner.Operation{
		Name:    NameList,
		Summary: "List rows matching column:op[:value] predicates",
		Kind:    runner.KindRead,
		Params: []runner.ParamSpec{
			tableParam(),
			{Name: "select", Type: runner.TypeColumns, Default: "*", Help: "comma separated columns, or *"},
			{Name: "where", Type: runner.TypePredicates, Help: "column:op[:value], repeatable or ';' separated; ops: is-null, is-not-null, eq, neq, gt, gte, lt, lte, like"},
			limitParam(),
		},
		Execute: func(ctx context.Context, p runner.Params, d runner.Deps) (any, error) {
			return list(ctx, d.Store, p.String("table"), p.List("select"), p.Predicates("where"), p.Int("limit"))
		},
	}
}

func list(ctx context.Context, store datastore.Client, table string, columns []string, where []datastore.Predicate, limit int) (*ListReport, error) {
	if len(columns) == 1 && columns[0] == "*" {
		columns = nil
	}
	rows, err := store.Select(ctx, datastore.SelectQuery{Table: table, Columns: columns, Where: where, Limit: limit})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.BackendError, "cannot list "+table, err)
	}
	if len(columns) > 0 {
		for i, r := range rows {
			rows[i] = r.Project(columns)
		}
	}
	return &ListReport{Table: table, Columns: columns, Where: where, Count: len(rows), Rows: rows}, nil
}

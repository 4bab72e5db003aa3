// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"

	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/runner"
)

// InspectReport lists a table's columns in native order with one full row.
type InspectReport struct {
	Table   string         `json:"table" yaml:"table"`
	Columns []string       `json:"columns" yaml:"columns"`
	Row     *datastore.Row `json:"row" yaml:"row"`
}

// Inspect fetches one row expecting exactly one match.
func Inspect() *runner.Operation {
	return &runner.Operation{
		Name:    NameInspect,
		Summary: "Show a table's column names and one full sample row",
		Kind:    runner.KindRead,
		Params:  []runner.ParamSpec{tableParam()},
		Execute: func(ctx context.Context, p runner.Params, d runner.Deps) (any, error) {
			table := p.String("table")
			rows, err := d.Store.Select(ctx, datastore.SelectQuery{Table: table, Limit: 1})
			if err != nil {
				return nil, apperrors.Wrap(apperrors.BackendError, "cannot read "+table, err)
			}
			if len(rows) == 0 {
				return nil, apperrors.New(apperrors.NotFound, "table "+table+" has no rows")
			}
			return &InspectReport{Table: table, Columns: rows[0].Columns(), Row: rows[0]}, nil
		},
	}
}

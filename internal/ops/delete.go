// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"
	"fmt"

	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/runner"
)

// DeleteReport is the outcome of a delete. Affected may be zero: deleting a
// row that does not exist is not an error.
type DeleteReport struct {
	Table    string `json:"table" yaml:"table"`
	Column   string `json:"column" yaml:"column"`
	Value    string `json:"value" yaml:"value"`
	Affected int64  `json:"affected" yaml:"affected"`
}

// Delete removes the rows whose column equals value, in one call.
func Delete() *runner.Operation {
	return &runner.Operation{
		Name:    NameDelete,
		Summary: "Delete rows where a column equals a value",
		Kind:    runner.KindWrite,
		Params: []runner.ParamSpec{
			tableParam(),
			{Name: "column", Type: runner.TypeIdent, Default: "id", Help: "column to match on"},
			{Name: "value", Type: runner.TypeString, Required: true, Help: "value identifying the row(s)"},
		},
		Execute: func(ctx context.Context, p runner.Params, d runner.Deps) (any, error) {
			q := datastore.DeleteQuery{
				Table: p.String("table"),
				Where: datastore.Predicate{Column: p.String("column"), Op: datastore.OpEq, Value: p.String("value")},
			}
			n, err := d.Store.Delete(ctx, q)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.DeleteFailed,
					fmt.Sprintf("delete from %s where %s = %q", q.Table, q.Where.Column, q.Where.Value), err)
			}
			d.Log.Debug("rows deleted", d.Log.Args("table", q.Table, "affected", n))
			return &DeleteReport{Table: q.Table, Column: q.Where.Column, Value: q.Where.Value, Affected: n}, nil
		},
	}
}

// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"
	"sort"

	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/runner"
)

// exampleWidth is the maximum number of runes of an example value.
const exampleWidth = 50

// Field describes one column observed in a sample row.
type Field struct {
	Name    string         `json:"name" yaml:"name"`
	Type    datastore.Type `json:"type" yaml:"type"`
	Example string         `json:"example" yaml:"example"`
}

// SchemaReport is the result of schema discovery.
type SchemaReport struct {
	Table  string  `json:"table" yaml:"table"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Schema samples one row and classifies its columns. An empty table yields
// an empty field list.
func Schema() *runner.Operation {
	return &runner.Operation{
		Name:    NameSchema,
		Summary: "Discover a table's columns and value types from one sample row",
		Kind:    runner.KindRead,
		Params:  []runner.ParamSpec{tableParam()},
		Execute: func(ctx context.Context, p runner.Params, d runner.Deps) (any, error) {
			table := p.String("table")
			rows, err := d.Store.Select(ctx, datastore.SelectQuery{Table: table, Limit: 1})
			if err != nil {
				return nil, apperrors.Wrap(apperrors.BackendError, "cannot sample "+table, err)
			}
			report := &SchemaReport{Table: table, Fields: []Field{}}
			if len(rows) == 0 {
				return report, nil
			}
			report.Fields = describe(rows[0])
			return report, nil
		},
	}
}

func describe(row *datastore.Row) []Field {
	cols := row.Columns()
	sort.Strings(cols)
	fields := make([]Field, 0, len(cols))
	for _, c := range cols {
		v, _ := row.Get(c)
		fields = append(fields, Field{Name: c, Type: row.Type(c), Example: truncate(datastore.Text(v), exampleWidth)})
	}
	return fields
}

// truncate cuts s to n runes and marks the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

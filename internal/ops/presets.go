// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/datastore"
	"inventoryops/cli/internal/runner"
)

// Preset is a listing with a fixed table, projection and filter.
type Preset struct {
	Name    string
	Summary string
	Table   string
	Select  []string
	Where   []datastore.Predicate
}

var productColumns = []string{"id", "name", "sku", "stockx_product_id"}

// DefaultPresets returns the built-in product listings keyed by name.
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		NameUnmappedProducts: {
			Name:    NameUnmappedProducts,
			Summary: "List products not yet linked to a StockX product",
			Table:   "products",
			Select:  productColumns,
			Where:   []datastore.Predicate{{Column: "stockx_product_id", Op: datastore.OpIsNull}},
		},
		NameMappedProducts: {
			Name:    NameMappedProducts,
			Summary: "List products linked to a StockX product",
			Table:   "products",
			Select:  productColumns,
			Where:   []datastore.Predicate{{Column: "stockx_product_id", Op: datastore.OpIsNotNull}},
		},
	}
}

// apply overlays configured values; empty fields keep the default.
func (p *Preset) apply(o config.PresetConfig) error {
	if o.Table != "" {
		if err := datastore.ValidateIdentifier(o.Table); err != nil {
			return err
		}
		p.Table = o.Table
	}
	if len(o.Select) > 0 {
		for _, c := range o.Select {
			if err := datastore.ValidateIdentifier(c); err != nil {
				return err
			}
		}
		p.Select = append([]string(nil), o.Select...)
	}
	if len(o.Where) > 0 {
		where := make([]datastore.Predicate, 0, len(o.Where))
		for _, s := range o.Where {
			pred, err := datastore.ParsePredicate(s)
			if err != nil {
				return err
			}
			where = append(where, pred)
		}
		p.Where = where
	}
	return nil
}

// Operation builds the runner operation for p.
func (p Preset) Operation() *runner.Operation {
	return &runner.Operation{
		Name:    p.Name,
		Summary: p.Summary,
		Kind:    runner.KindRead,
		Params:  []runner.ParamSpec{limitParam()},
		Execute: func(ctx context.Context, params runner.Params, d runner.Deps) (any, error) {
			return list(ctx, d.Store, p.Table, p.Select, p.Where, params.Int("limit"))
		},
	}
}

// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package ops defines the maintenance operations: schema discovery,
// structural inspection, delete by match, filtered listing with its two
// product presets, and market-data sync.
package ops

import (
	"fmt"
	"sort"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/runner"
)

// Operation names.
const (
	NameSchema           = "schema"
	NameInspect          = "inspect"
	NameDelete           = "delete"
	NameList             = "list"
	NameUnmappedProducts = "unmapped-products"
	NameMappedProducts   = "mapped-products"
	NameSync             = "sync"
)

// Register adds every operation to reg. overrides adjusts the preset
// listings by name; unknown names are rejected.
func Register(reg *runner.Registry, overrides map[string]config.PresetConfig) error {
	presets := DefaultPresets()
	var unknown []string
	for name, o := range overrides {
		p, ok := presets[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if err := p.apply(o); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		presets[name] = p
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown presets in configuration: %v", unknown)
	}

	all := []*runner.Operation{Schema(), Inspect(), Delete(), List(), Sync()}
	for _, name := range []string{NameUnmappedProducts, NameMappedProducts} {
		all = append(all, presets[name].Operation())
	}
	for _, op := range all {
		if err := reg.Register(op); err != nil {
			return err
		}
	}
	return nil
}

func tableParam() runner.ParamSpec {
	return runner.ParamSpec{Name: "table", Type: runner.TypeIdent, Required: true, Help: "table name, optionally schema-qualified"}
}

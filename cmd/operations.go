// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"inventoryops/cli/internal/ops"
	"inventoryops/cli/internal/runner"
)

// catalog is the operation set with built-in presets. It shapes the typed
// subcommands; the registry used at run time also applies configured presets.
func catalog() *runner.Registry {
	reg := runner.NewRegistry()
	if err := ops.Register(reg, nil); err != nil {
		panic(err)
	}
	return reg
}

// operationCommand builds a subcommand for op. Each parameter becomes a
// flag and may also be passed as key=value. An operation with a table
// parameter accepts the table as its first positional argument.
func operationCommand(op *runner.Operation) *cobra.Command {
	_, hasTable := op.Param("table")
	use := op.Name + " [key=value...]"
	if hasTable {
		use = op.Name + " [table] [key=value...]"
	}

	c := &cobra.Command{
		Use:   use,
		Short: op.Summary,
		Long:  fmt.Sprintf("%s.\n\nKind: %s", op.Summary, op.Kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			if hasTable && len(args) > 0 && !strings.Contains(args[0], "=") {
				args = append([]string{"table=" + args[0]}, args[1:]...)
			}
			raw, err := runner.ParseArgs(args)
			if err != nil {
				return err
			}
			for _, p := range op.Params {
				f := cmd.Flags().Lookup(p.Name)
				if f == nil || !f.Changed {
					continue
				}
				if isMulti(p.Type) {
					vals, _ := cmd.Flags().GetStringArray(p.Name)
					raw[p.Name] = append(raw[p.Name], vals...)
				} else {
					raw[p.Name] = append(raw[p.Name], f.Value.String())
				}
			}
			return runOperation(cmd, op.Name, raw)
		},
	}

	for _, p := range op.Params {
		help := p.Help
		if p.Required {
			help += " (required)"
		}
		if isMulti(p.Type) {
			c.Flags().StringArray(p.Name, nil, help)
		} else {
			c.Flags().String(p.Name, p.Default, help)
		}
	}
	return c
}

func isMulti(t runner.ParamType) bool {
	switch t {
	case runner.TypeList, runner.TypeColumns, runner.TypePredicates:
		return true
	}
	return false
}

func init() {
	for _, op := range catalog().Operations() {
		rootCmd.AddCommand(operationCommand(op))
	}
}

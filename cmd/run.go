// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"

	"inventoryops/cli/internal/runner"
)

// runCmd dispatches any registered operation by name.
var runCmd = &cobra.Command{
	Use:   "run <operation> [key=value...]",
	Short: "Run a maintenance operation by name",
	Long: `Run resolves the named operation, validates the key=value parameters
against its declared schema and executes it. Repeat a key to pass several
values to a list parameter. Use "invops ops" to see every operation.`,
	Example: `  invops run schema table=products
  invops run list table=products where=stockx_product_id:is-null limit=20
  invops run delete table=products value=0b6f0c3e-5a1d-4a57-9d0e-0c2f6a1b2c3d`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := runner.ParseArgs(args[1:])
		if err != nil {
			return err
		}
		return runOperation(cmd, args[0], raw)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"inventoryops/cli/internal/keychain"
)

// disconnectCmd removes stored datastore secrets from the keychain.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove saved datastore credentials",
	Long: `The disconnect command removes the service key and Postgres DSN saved by
"invops connect" from the OS keychain. The config file is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Warning.Println("Secure storage is not available on this system; nothing to remove")
			return nil
		}
		if err := km.ClearAll(); err != nil {
			return err
		}
		pterm.Success.Println("Saved datastore credentials have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}

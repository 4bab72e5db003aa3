// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the invops command-line interface. Every maintenance
// operation is reachable through the generic run command and through a typed
// subcommand of the same name; connect, config and disconnect manage the
// stored datastore credentials.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inventoryops/cli/internal/config"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/httperrors"
	"inventoryops/cli/internal/report"
)

var (
	showVersion bool
	configFile  string

	// errorFormat is the output format used to report a failure. It follows
	// --output until the configuration has been resolved.
	errorFormat = config.OutputTable
	// errorHost names the datastore endpoint in troubleshooting hints.
	errorHost string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "invops",
	Short: "Inventory data-maintenance command runner",
	Long: `invops runs named maintenance operations against the inventory datastore:
schema discovery, row inspection, delete by match, filtered listings and
market-data synchronization.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
			errorFormat = f.Value.String()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "invops %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application and exits with the status mapped from
// the returned error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		report.Error(os.Stderr, errorFormat, err)
		if errorFormat == config.OutputTable && errorHost != "" {
			httperrors.WriteHints(os.Stderr, err, "talking to the datastore", errorHost)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default $XDG_CONFIG_HOME/invops/config.yaml)")
	pf.String("backend", "", "datastore backend: rest, postgres or sqlite")
	pf.StringP("output", "o", "", "output format: table, json or yaml")
	pf.BoolP("verbose", "v", false, "log datastore requests to stderr")
	pf.String("url", "", "datastore REST endpoint URL")
	pf.String("dsn", "", "Postgres connection string")
	pf.String("sqlite", "", "SQLite database file")
	pf.String("sync-address", "", "market-data sync service address (host[:port])")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperrors.Wrap(apperrors.InvalidParameter, err.Error(), err)
	})
}

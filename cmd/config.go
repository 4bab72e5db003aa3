// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/dsn"
	"inventoryops/cli/internal/logging"
)

type setting struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
}

// configCmd shows the resolved configuration with secrets masked.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `The config command displays the configuration invops would use, where each
credential came from, and whether it is complete. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		settings := resolvedSettings(cfg)
		w := cmd.OutOrStdout()

		switch cfg.Output {
		case config.OutputJSON:
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		case config.OutputYAML:
			return yaml.NewEncoder(w).Encode(settings)
		}

		data := pterm.TableData{{"Key", "Value", "Source"}}
		for _, s := range settings {
			data = append(data, []string{s.Key, s.Value, s.Source})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		file := cfg.File
		if file == "" {
			file = "none"
		}
		fmt.Fprintln(w, pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Configuration")).
			WithPadding(1).
			Sprint(table+"\n\nconfig file: "+file))

		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(w, pterm.Warning.Sprint(err.Error()))
			fmt.Fprintln(w, "To store credentials, run: invops connect")
			return nil
		}
		fmt.Fprintln(w, pterm.Success.Sprint("Configuration is complete"))
		return nil
	},
}

func resolvedSettings(cfg *config.Config) []setting {
	src := func(key string) string {
		if s, ok := cfg.Sources[key]; ok {
			return s
		}
		return config.SourceDefault
	}
	return []setting{
		{Key: "backend", Value: cfg.Backend},
		{Key: "output", Value: cfg.Output},
		{Key: "datastore.url", Value: orUnset(cfg.Datastore.URL), Source: src("datastore.url")},
		{Key: "datastore.service_key", Value: orUnset(logging.MaskSecret(cfg.Datastore.ServiceKey)), Source: src("datastore.service_key")},
		{Key: "datastore.dsn", Value: orUnset(maskDSN(cfg.Datastore.DSN)), Source: src("datastore.dsn")},
		{Key: "datastore.path", Value: orUnset(cfg.Datastore.Path), Source: src("datastore.path")},
		{Key: "datastore.timeout", Value: cfg.Datastore.Timeout.String()},
		{Key: "sync.address", Value: orUnset(cfg.Sync.Address), Source: src("sync.address")},
		{Key: "presets", Value: orUnset(strings.Join(cfg.PresetNames(), ", "))},
	}
}

// maskDSN hides the password in a Postgres DSN.
func maskDSN(raw string) string {
	if raw == "" {
		return ""
	}
	info, err := dsn.Parse(raw)
	if err != nil {
		return logging.Mask(raw)
	}
	return info.Redacted()
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/ops"
	"inventoryops/cli/internal/runner"
)

type paramDoc struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
	Help     string `json:"help,omitempty" yaml:"help,omitempty"`
}

type operationDoc struct {
	Name    string     `json:"name" yaml:"name"`
	Kind    string     `json:"kind" yaml:"kind"`
	Summary string     `json:"summary" yaml:"summary"`
	Params  []paramDoc `json:"params" yaml:"params"`
}

// opsCmd lists the registered operations and their parameters.
var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the available operations and their parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reg := runner.NewRegistry()
		if err := ops.Register(reg, cfg.Presets); err != nil {
			return err
		}
		return writeOperations(cmd.OutOrStdout(), cfg.Output, describeOperations(reg))
	},
}

func describeOperations(reg *runner.Registry) []operationDoc {
	docs := make([]operationDoc, 0, len(reg.Names()))
	for _, op := range reg.Operations() {
		d := operationDoc{Name: op.Name, Kind: string(op.Kind), Summary: op.Summary, Params: []paramDoc{}}
		for _, p := range op.Params {
			d.Params = append(d.Params, paramDoc{
				Name:     p.Name,
				Type:     string(p.Type),
				Required: p.Required,
				Default:  p.Default,
				Help:     p.Help,
			})
		}
		docs = append(docs, d)
	}
	return docs
}

func writeOperations(w io.Writer, format string, docs []operationDoc) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	case config.OutputYAML:
		return yaml.NewEncoder(w).Encode(docs)
	}

	data := pterm.TableData{{"Operation", "Kind", "Parameters", "Summary"}}
	for _, d := range docs {
		params := make([]string, 0, len(d.Params))
		for _, p := range d.Params {
			s := p.Name + ":" + p.Type
			switch {
			case p.Required:
				s += "!"
			case p.Default != "":
				s += "=" + p.Default
			}
			params = append(params, s)
		}
		data = append(data, []string{d.Name, d.Kind, strings.Join(params, " "), d.Summary})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	fmt.Fprintln(w, pterm.Gray("name! = required, name=value = default"))
	return nil
}

func init() {
	rootCmd.AddCommand(opsCmd)
}

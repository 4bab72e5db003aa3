// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package report renders operation results and errors as pterm tables for
// people or as JSON/YAML documents for scripts.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/logging"
	"inventoryops/cli/internal/marketsync"
	"inventoryops/cli/internal/ops"
	"inventoryops/cli/internal/runner"
)

// Renderer writes results in one output format.
type Renderer struct {
	out    io.Writer
	format string
}

// New returns a renderer for format (table, json or yaml) writing to out.
func New(out io.Writer, format string) *Renderer {
	return &Renderer{out: out, format: format}
}

// Format returns the output format.
func (r *Renderer) Format() string { return r.format }

// Result writes res.
func (r *Renderer) Result(res *runner.Result) error {
	switch r.format {
	case config.OutputJSON:
		return r.json(res)
	case config.OutputYAML:
		return r.yaml(res)
	}
	return r.table(res)
}

func (r *Renderer) json(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (r *Renderer) yaml(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) table(res *runner.Result) error {
	switch p := res.Payload.(type) {
	case *ops.SchemaReport:
		return r.schema(p)
	case *ops.InspectReport:
		return r.inspect(p)
	case *ops.DeleteReport:
		fmt.Fprintln(r.out, pterm.Success.Sprintf("Deleted %d row(s) from %s where %s = %s",
			p.Affected, p.Table, p.Column, strconv.Quote(p.Value)))
		return nil
	case *ops.ListReport:
		return r.list(p)
	case *marketsync.SyncResult:
		return r.sync(p)
	}
	return r.json(res.Payload)
}

func (r *Renderer) schema(p *ops.SchemaReport) error {
	if len(p.Fields) == 0 {
		fmt.Fprintln(r.out, pterm.Info.Sprintf("%s has no rows; no fields to report", p.Table))
		return nil
	}
	data := pterm.TableData{{"Column", "Type", "Example"}}
	for _, f := range p.Fields {
		data = append(data, []string{f.Name, string(f.Type), f.Example})
	}
	return r.renderTable(p.Table, data)
}

func (r *Renderer) inspect(p *ops.InspectReport) error {
	data := pterm.TableData{{"Column", "Type", "Value"}}
	for _, c := range p.Columns {
		v, _ := p.Row.Get(c)
		data = append(data, []string{c, string(p.Row.Type(c)), datastore.Text(v)})
	}
	return r.renderTable(p.Table, data)
}

func (r *Renderer) list(p *ops.ListReport) error {
	cols := p.Columns
	if len(cols) == 0 {
		cols = unionColumns(p.Rows)
	}
	if len(p.Rows) == 0 || len(cols) == 0 {
		fmt.Fprintln(r.out, pterm.Info.Sprintf("No rows in %s match", p.Table))
		return nil
	}
	data := pterm.TableData{cols}
	for _, row := range p.Rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := row.Get(c); ok {
				line[i] = datastore.Text(v)
			}
		}
		data = append(data, line)
	}
	if err := r.renderTable(p.Table, data); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%d row(s)\n", p.Count)
	return nil
}

func (r *Renderer) sync(p *marketsync.SyncResult) error {
	title := pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("Sync succeeded")
	if !p.Success {
		title = pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Sync failed")
	}
	var body string
	add := func(k, v string) {
		if body != "" {
			body += "\n"
		}
		body += pterm.Bold.Sprint(k+": ") + v
	}
	add("success", strconv.FormatBool(p.Success))
	if p.VariantsCached != nil {
		add("variantsCached", strconv.FormatInt(*p.VariantsCached, 10))
	}
	if p.SnapshotsCreated != nil {
		add("snapshotsCreated", strconv.FormatInt(*p.SnapshotsCreated, 10))
	}
	if p.Warning != nil {
		add("warning", *p.Warning)
	}
	if p.Error != nil {
		add("error", *p.Error)
	}
	fmt.Fprintln(r.out, pterm.DefaultBox.WithTitle(title).WithPadding(1).Sprint(body))
	return nil
}

func (r *Renderer) renderTable(title string, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(title))
	fmt.Fprintln(r.out, s)
	return nil
}

// unionColumns returns every column seen, in first-seen order.
func unionColumns(rows []*datastore.Row) []string {
	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for _, c := range row.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// errorDoc is the machine-readable error written in json and yaml modes.
type errorDoc struct {
	Error errorBody `json:"error" yaml:"error"`
}

type errorBody struct {
	Kind      string                  `json:"kind" yaml:"kind"`
	Message   string                  `json:"message" yaml:"message"`
	Operation string                  `json:"operation,omitempty" yaml:"operation,omitempty"`
	Param     string                  `json:"param,omitempty" yaml:"param,omitempty"`
	Backend   *datastore.BackendError `json:"backend,omitempty" yaml:"backend,omitempty"`
	ExitCode  int                     `json:"exit_code" yaml:"exit_code"`
}

// Error writes err to w. Secrets in the message are masked.
func Error(w io.Writer, format string, err error) {
	if err == nil {
		return
	}
	body := errorBody{Kind: "error", Message: logging.Mask(err.Error()), ExitCode: apperrors.ExitCode(err)}
	if e, ok := apperrors.As(err); ok {
		body.Kind = string(e.Kind)
		body.Operation = e.Operation
		body.Param = e.Param
	}
	var be *datastore.BackendError
	if errors.As(err, &be) {
		body.Backend = be
	}

	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(errorDoc{Error: body})
	case config.OutputYAML:
		_ = yaml.NewEncoder(w).Encode(errorDoc{Error: body})
	default:
		fmt.Fprintln(w, pterm.Error.Sprint(body.Message))
		if body.Backend != nil && body.Backend.Hint != "" {
			fmt.Fprintln(w, pterm.Info.Sprint("hint: "+logging.Mask(body.Backend.Hint)))
		}
	}
}

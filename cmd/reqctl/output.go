package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/present"
	"github.com/intelliment/puppet-integration/internal/session"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func validOutput(format string) bool {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return true
	}
	return false
}

func writeScenarios(w io.Writer, format string, scenarios []domain.Scenario) error {
	if format != outputTable {
		return encode(w, format, scenarios)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "NAME", "DESCRIPTION"})
	for _, s := range scenarios {
		t.AppendRow(table.Row{s.ID, s.Name, s.Description})
	}
	t.Render()
	return nil
}

func writeRequirements(w io.Writer, format string, set domain.RequirementSet) error {
	if format != outputTable {
		return encode(w, format, set)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"LIST", "ID", "NAME", "SERVICES", "APPLICATIONS", "ACTION"})
	appendRequirements(t, session.ListExisting, set.ExistingRequirements)
	appendRequirements(t, session.ListNew, set.NewRequirements)
	t.Render()
	return nil
}

func appendRequirements(t table.Writer, list session.List, reqs []domain.Requirement) {
	for _, r := range reqs {
		t.AppendRow(table.Row{
			list,
			r.ID,
			r.Name,
			present.FormatServices(r.Services),
			present.FormatApplications(r.Applications),
			r.Action,
		})
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateRows = false
	return t
}

func encode(w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case outputJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case outputYAML:
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

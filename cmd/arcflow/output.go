package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/arcsuite/arcflow/pkg/editor"
	"github.com/arcsuite/arcflow/pkg/models"
	"github.com/arcsuite/arcflow/pkg/palette"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var ErrUnknownOutput = errors.New("unknown output format")

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return &printer{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("%w: %s (use table, json or yaml)", ErrUnknownOutput, format)
	}
}

// print writes v as JSON or YAML, or calls table for the table format.
func (p *printer) print(v any, table func(tw *tabwriter.Writer)) error {
	switch p.format {
	case outputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case outputYAML:
		// Round trip through JSON so node configs keep their wire shape.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}

		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}

		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)

		if err := enc.Encode(generic); err != nil {
			return err
		}

		return enc.Close()
	default:
		tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
		table(tw)

		return tw.Flush()
	}
}

func (p *printer) workflows(workflows []models.Workflow) error {
	return p.print(workflows, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tNODES\tUPDATED")

		for _, wf := range workflows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				wf.ID, wf.Name, wf.Status, len(wf.Nodes), wf.UpdatedAt.Format("2006-01-02 15:04"))
		}
	})
}

func (p *printer) workflow(wf *models.Workflow) error {
	return p.print(wf, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "ID:\t%s\n", wf.ID)
		fmt.Fprintf(tw, "Name:\t%s\n", wf.Name)
		fmt.Fprintf(tw, "Description:\t%s\n", wf.Description)
		fmt.Fprintf(tw, "Status:\t%s\n", wf.Status)
		fmt.Fprintf(tw, "Created:\t%s\n", wf.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(tw, "Updated:\t%s\n", wf.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "NODE\tTYPE\tSUBTYPE\tNAME\tPOSITION")

		for _, n := range wf.Nodes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Type, n.Subtype(), n.Name, n.Position)
		}
	})
}

func (p *printer) node(n models.NodeInstance) error {
	return p.print(n, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "NODE\tTYPE\tSUBTYPE\tNAME\tPOSITION")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Type, n.Subtype(), n.Name, n.Position)
	})
}

func (p *printer) palette(templates []palette.NodeTemplate) error {
	return p.print(templates, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "TYPE\tSUBTYPE\tNAME\tICON")

		for _, tpl := range templates {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tpl.Category, tpl.Subtype, tpl.Name, tpl.Icon)
		}
	})
}

func (p *printer) form(form *editor.Form) error {
	return p.print(form, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, form.Title)
		fmt.Fprintln(tw, "FIELD\tKIND\tVALUE\tOPTIONS")

		for _, f := range form.Fields {
			options := ""
			for i, o := range f.Choices {
				if i > 0 {
					options += ","
				}

				options += o.Value
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Label, f.Kind, f.Value, options)
		}
	})
}

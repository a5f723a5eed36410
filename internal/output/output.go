// Package output formats command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format is an output format.
type Format string

const (
	// FormatTable renders a table.
	FormatTable Format = "table"
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

// Data is tabular output. Value carries the structured form used by the JSON
// and YAML formatters; when it is nil they encode the table rows instead.
type Data struct {
	Headers []string
	Rows    [][]string
	Value   any
}

// Formatter writes data in one format.
type Formatter interface {
	Format(w io.Writer, data Data) error
}

// NewFormatter returns the formatter for f. Unknown formats render tables.
func NewFormatter(f Format) Formatter {
	switch f {
	case FormatJSON:
		return jsonFormatter{}
	case FormatYAML:
		return yamlFormatter{}
	default:
		return tableFormatter{}
	}
}

// ParseFormat validates s. The empty string is returned unchanged so callers
// can fall back to DetectFormat.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
	}
}

// DetectFormat returns explicit when set, a table for terminals and JSON for
// pipes.
func DetectFormat(explicit Format, out any) Format {
	if explicit != "" {
		return explicit
	}
	if f, ok := out.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return FormatTable
		}
	}
	return FormatJSON
}

// Title turns a snake_case key into a header, e.g. "reduced_rows" into
// "Reduced Rows".
func Title(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// KeyValues builds a two-column property table from ordered keys.
func KeyValues(keys []string, values map[string]any) Data {
	d := Data{Headers: []string{"Property", "Value"}, Value: values}
	for _, k := range keys {
		d.Rows = append(d.Rows, []string{Title(k), fmt.Sprint(values[k])})
	}
	return d
}

func (d Data) value() any {
	if d.Value != nil {
		return d.Value
	}
	out := make([]map[string]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		m := make(map[string]string, len(d.Headers))
		for i, h := range d.Headers {
			if i < len(row) {
				m[h] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

type jsonFormatter struct{}

func (jsonFormatter) Format(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.value())
}

type yamlFormatter struct{}

func (yamlFormatter) Format(w io.Writer, d Data) error {
	data, err := yaml.MarshalWithOptions(d.value(),
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

type tableFormatter struct{}

func (tableFormatter) Format(w io.Writer, d Data) error {
	table := tablewriter.NewTable(w)
	if len(d.Headers) > 0 {
		headers := make([]any, len(d.Headers))
		for i, h := range d.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}
	for _, row := range d.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

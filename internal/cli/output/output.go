// Package output provides output formatting for liquid-cli.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// Format identifies an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter writes structured data to a writer.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter returns a formatter for the given format.
// Unknown formats fall back to table output.
func NewFormatter(f Format) Formatter {
	switch f {
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter writes data as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Table holds tabular data for rendering.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table using aligned columns.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if len(t.Headers) > 0 {
		for i, h := range t.Headers {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, h)
		}
		fmt.Fprintln(tw)
	}

	for _, row := range t.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// TableFormatter renders Tables; other data falls back to JSON.
type TableFormatter struct{}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	if t, ok := data.(*Table); ok {
		return t.Render(w)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

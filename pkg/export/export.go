package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a rendered document type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ErrNoColumns is returned when a table defines no columns.
var ErrNoColumns = errors.New("export table requires at least one column")

// Table is a titled tabular document. Rows hold cell values in column order.
type Table struct {
	Title   string
	Summary []string
	Columns []string
	Rows    [][]string
}

// Renderer turns a Table into file bytes of one format.
type Renderer interface {
	Format() Format
	ContentType() string
	Render(Table) ([]byte, error)
}

// ParseFormat accepts "csv" or "pdf" in any case.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Registry resolves renderers by format.
type Registry map[Format]Renderer

// NewRegistry returns a registry holding the CSV and PDF renderers.
func NewRegistry() Registry {
	r := Registry{}
	for _, renderer := range []Renderer{NewCSVRenderer(), NewPDFRenderer()} {
		r[renderer.Format()] = renderer
	}
	return r
}

func (r Registry) Get(format Format) (Renderer, error) {
	renderer, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("no renderer for %q", format)
	}
	return renderer, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Package export renders analytics reports as CSV or PDF downloads.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf" case-insensitively; empty means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Field is one labelled summary value.
type Field struct {
	Label string
	Value string
}

// Table is tabular report content keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Report is a titled summary block followed by an optional table.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Summary     []Field
	Table       Table
}

// Renderer turns a report into bytes.
type Renderer interface {
	Render(Report) ([]byte, error)
}

// RendererFor returns the renderer for f.
func RendererFor(f Format) Renderer {
	if f == FormatPDF {
		return NewPDFRenderer()
	}
	return NewCSVRenderer()
}

// Filename builds a download name such as "items-report-20240131.csv".
func Filename(prefix string, f Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, at.UTC().Format("20060102"), f)
}

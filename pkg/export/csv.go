package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// CSVRenderer writes the summary as label,value pairs, a blank line, then
// the table.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render implements Renderer.
func (r *CSVRenderer) Render(report Report) ([]byte, error) {
	if len(report.Summary) == 0 && len(report.Table.Headers) == 0 {
		return nil, fmt.Errorf("csv report is empty")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	if report.Title != "" {
		if err := w.Write([]string{report.Title, report.GeneratedAt.UTC().Format(time.RFC3339)}); err != nil {
			return nil, fmt.Errorf("write csv title: %w", err)
		}
	}
	for _, field := range report.Summary {
		if err := w.Write([]string{field.Label, field.Value}); err != nil {
			return nil, fmt.Errorf("write csv summary: %w", err)
		}
	}

	if len(report.Table.Headers) > 0 {
		if len(report.Summary) > 0 || report.Title != "" {
			if err := w.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if err := w.Write(report.Table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range report.Table.Rows {
			record := make([]string, len(report.Table.Headers))
			for i, header := range report.Table.Headers {
				record[i] = row[header]
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		Title:       "Item Report",
		GeneratedAt: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
		Summary: []Field{
			{Label: "Total items", Value: "4"},
			{Label: "Success rate", Value: "75.00"},
		},
		Table: Table{
			Headers: []string{"id", "name", "status"},
			Rows: []map[string]string{
				{"id": "1", "name": "Widget, large", "status": "Approved"},
				{"id": "2", "name": "Gadget", "status": "Pending"},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := RendererFor(FormatCSV).Render(sampleReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Item Report,2024-01-31T12:00:00Z", lines[0])
	assert.Equal(t, "Total items,4", lines[1])
	assert.Equal(t, "id,name,status", lines[4])
	assert.Equal(t, `1,"Widget, large",Approved`, lines[5])
}

func TestPDFRender(t *testing.T) {
	out, err := RendererFor(FormatPDF).Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRejectsEmptyReport(t *testing.T) {
	_, err := NewCSVRenderer().Render(Report{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Report{})
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "items-report-20240131.pdf", Filename("items-report", FormatPDF, at))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:   "Transcript",
		Summary: []string{"Student: Alex Johnson", "Points: 1248"},
		Columns: []string{"Course", "Progress", "Completed"},
		Rows: [][]string{
			{"JavaScript Fundamentals", "68", "no"},
			{"Python, for Data", "100"},
		},
	}
}

func TestCSVRenderer(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Course,Progress,Completed", lines[0])
	assert.Equal(t, "JavaScript Fundamentals,68,no", lines[1])
	assert.Equal(t, `"Python, for Data",100,`, lines[2])
}

func TestPDFRenderer(t *testing.T) {
	out, err := NewPDFRenderer().Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderersRequireColumns(t *testing.T) {
	_, err := NewCSVRenderer().Render(Table{})
	assert.ErrorIs(t, err, ErrNoColumns)
	_, err = NewPDFRenderer().Render(Table{})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestParseFormatAndRegistry(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)

	r, err := NewRegistry().Get(FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", r.ContentType())
}

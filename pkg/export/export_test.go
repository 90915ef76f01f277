package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:       "Accounts",
		GeneratedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Columns:     []string{"email", "active", "note"},
		Rows: [][]string{
			{"alice@example.com", "true", "has, comma"},
			{"bob@example.com", "false", strings.Repeat("long ", 80)},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(FormatCSV, sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "email,active,note", lines[0])
	assert.Equal(t, `alice@example.com,true,"has, comma"`, lines[1])
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(FormatPDF, sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderValidatesShape(t *testing.T) {
	_, err := Render(FormatCSV, Table{})
	assert.Error(t, err)

	_, err = Render(FormatCSV, Table{Columns: []string{"a", "b"}, Rows: [][]string{{"only one"}}})
	assert.Error(t, err)

	_, err = Render(Format("xml"), sampleTable())
	assert.Error(t, err)
}

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Name", "Size")
	assert.Empty(t, table.Rows())

	table.AddRow("a.txt", "1.0 KiB")
	table.AddRow("docs", "-")

	assert.Equal(t, []string{"Name", "Size"}, table.Headers())
	require.Len(t, table.Rows(), 2)
	assert.Equal(t, []string{"docs", "-"}, table.Rows()[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Name", "Kind")
	table.AddRow("report.pdf", "file")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "KIND")
	assert.Contains(t, out, "report.pdf")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Files", "3"}, {"Used", "12 KiB"}}))

	out := buf.String()
	assert.Contains(t, out, "Files")
	assert.Contains(t, out, "12 KiB")
}

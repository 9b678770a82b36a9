package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookRoundTrip(t *testing.T) {
	wb, err := NewWorkbook()
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	table := NewTable("Daily Counts", "Date", "Total_Files")
	table.Append(map[string]any{"Date": "2021-11-01", "Total_Files": 3})
	table.Append(map[string]any{"Date": TotalLabel, "Total_Files": 3})
	require.NoError(t, wb.AddTable(table))

	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	require.NoError(t, wb.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Contains(t, f.GetSheetList(), "Daily Counts")
	assert.NotContains(t, f.GetSheetList(), "Sheet1")

	rows, err := f.GetRows("Daily Counts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Total_Files"}, rows[0])
	assert.Equal(t, "2021-11-01", rows[1][0])
	assert.Equal(t, TotalLabel, rows[2][0])
}

func TestWorkbookLongSheetNameTruncated(t *testing.T) {
	wb, err := NewWorkbook()
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	table := NewTable("A Very Long Sheet Name That Exceeds The Limit", "X")
	require.NoError(t, wb.AddTable(table))

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, wb.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	for _, name := range f.GetSheetList() {
		assert.LessOrEqual(t, len(name), maxSheetNameLen)
	}
}

func TestWorkbookSkipsMissingCells(t *testing.T) {
	wb, err := NewWorkbook()
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	table := NewTable("Sparse", "A", "B")
	table.Append(map[string]any{"A": "x"})
	require.NoError(t, wb.AddTable(table))

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, wb.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	v, err := f.GetCellValue("Sparse", "B2")
	require.NoError(t, err)
	assert.Empty(t, v)
}

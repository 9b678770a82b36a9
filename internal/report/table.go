// Package report assembles the workbook: tabular sheets, totals with
// cross-sheet validation, and the rendered XLSX file.
package report

// Table is one sheet's worth of tabular data. Columns fixes the column
// order; rows may omit cells, which render empty.
type Table struct {
	Name    string
	Columns []string
	Rows    []map[string]any
}

// NewTable creates an empty table with the given column order.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append adds one row.
func (t *Table) Append(row map[string]any) {
	t.Rows = append(t.Rows, row)
}

// numeric converts a cell to float64 when it holds a number.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// maxSheetNameLen is the XLSX limit on sheet name length.
const maxSheetNameLen = 31

// Workbook renders tables into an XLSX file.
type Workbook struct {
	file        *excelize.File
	headerStyle int
	totalStyle  int
	added       int
}

// NewWorkbook creates an empty workbook with the shared cell styles.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	return &Workbook{file: f, headerStyle: headerStyle, totalStyle: totalStyle}, nil
}

// sheetName trims a table name to the XLSX limit.
func sheetName(name string) string {
	if len(name) > maxSheetNameLen {
		return name[:maxSheetNameLen]
	}
	return name
}

// AddTable writes the table to its own sheet with a styled, frozen header
// row. Rows labeled TOTAL in their first column are rendered bold.
func (w *Workbook) AddTable(t *Table) error {
	name := sheetName(t.Name)
	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	w.added++

	for col, header := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(name, cell, header); err != nil {
			return err
		}
	}
	if len(t.Columns) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := w.file.SetCellStyle(name, first, last, w.headerStyle); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		rowNum := i + 2
		for col, header := range t.Columns {
			value, ok := row[header]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
		if len(t.Columns) > 0 && row[t.Columns[0]] == TotalLabel {
			first, _ := excelize.CoordinatesToCellName(1, rowNum)
			last, _ := excelize.CoordinatesToCellName(len(t.Columns), rowNum)
			if err := w.file.SetCellStyle(name, first, last, w.totalStyle); err != nil {
				return err
			}
		}
	}

	if err := w.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if len(t.Columns) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(t.Columns))
		if err := w.file.SetColWidth(name, "A", lastCol, 16); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the workbook to path, creating parent directories. The
// default empty sheet is removed once real sheets exist.
func (w *Workbook) Save(path string) error {
	if w.added > 0 {
		_ = w.file.DeleteSheet("Sheet1")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Close releases the workbook resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

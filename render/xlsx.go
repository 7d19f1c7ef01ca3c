package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Schedule"

// WriteXLSX writes t as a workbook. Spanning merge cells become merged
// ranges and list cells keep one value per line.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	body, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		return err
	}

	for i, h := range t.Headers() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	if len(t.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, header); err != nil {
			return err
		}
		if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, cell := range row {
			if cell.Covered {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, name, cell.Text("\n")); err != nil {
				return err
			}
			if cell.Span > 1 {
				end, err := excelize.CoordinatesToCellName(c+1, r+1+cell.Span)
				if err != nil {
					return err
				}
				if err := f.MergeCell(SheetName, name, end); err != nil {
					return fmt.Errorf("merge %s:%s: %w", name, end, err)
				}
			}
		}
	}
	if len(t.Rows) > 0 && len(t.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), len(t.Rows)+1)
		if err := f.SetCellStyle(SheetName, "A2", last, body); err != nil {
			return err
		}
	}
	for i := range t.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, 18); err != nil {
			return err
		}
	}
	return f.Write(w)
}

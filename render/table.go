// Package render lays out merged schedule rows as a table of visible
// columns and writes it to a terminal or to a spreadsheet.
package render

import (
	"strings"

	"github.com/kilianp07/kgc/core/schedule"
)

// Placeholder is shown for empty cells.
const Placeholder = "-"

// Cell is one rendered table cell.
type Cell struct {
	Lines []string
	// Span is the number of rows the cell covers, 1 for ordinary cells.
	Span int
	// Covered cells sit under an earlier row's span and are not drawn.
	Covered bool
}

// Text joins the lines with sep. Empty cells give Placeholder and covered
// cells give the empty string.
func (c Cell) Text(sep string) string {
	if c.Covered {
		return ""
	}
	if len(c.Lines) == 0 {
		return Placeholder
	}
	return strings.Join(c.Lines, sep)
}

// Table is the presentation of merged rows restricted to some columns.
type Table struct {
	Columns []schedule.Column
	Rows    [][]Cell
	// MergeColumn is the key whose cells may span several rows.
	MergeColumn schedule.Field
}

// NewTable lays out rows for cols. Cells of mergeKey use each row's Span and
// Display; a row with Span 0 yields a covered cell while its other columns
// render normally.
func NewTable(rows []schedule.MergedRow, cols []schedule.Column, mergeKey schedule.Field) *Table {
	t := &Table{Columns: cols, Rows: make([][]Cell, len(rows)), MergeColumn: mergeKey}
	for i, r := range rows {
		cells := make([]Cell, len(cols))
		for j, c := range cols {
			if c.Key != mergeKey {
				cells[j] = Cell{Lines: r.Value(c.Key).Strings(), Span: 1}
				continue
			}
			if r.Span == 0 {
				cells[j] = Cell{Covered: true}
				continue
			}
			span := r.Span
			// clamp spans that would run past the end
			if i+span > len(rows) {
				span = len(rows) - i
			}
			cells[j] = Cell{Lines: r.Display.Strings(), Span: span}
		}
		t.Rows[i] = cells
	}
	return t
}

// FromSnapshot renders the league-skin merged rows of snap with the columns
// currently visible in vis. A nil snapshot gives a table without rows.
func FromSnapshot(snap *schedule.Snapshot, vis *schedule.Visibility) *Table {
	var rows []schedule.MergedRow
	if snap != nil {
		rows = snap.Merged
	}
	return NewTable(rows, vis.Visible(), schedule.FieldLeagueSkin)
}

// Headers returns the column labels.
func (t *Table) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

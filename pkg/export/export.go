// Package export writes the rendered schedule in flat formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/render"
)

// ListSeparator joins list values inside one CSV field.
const ListSeparator = "; "

// WriteJSON writes the normalized records to w in JSON format.
func WriteJSON(w io.Writer, records []schedule.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes t with one header line of column labels. A merged cell is
// written on its first row only; covered rows get an empty field.
func WriteCSV(w io.Writer, t *render.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers()); err != nil {
		return err
	}
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, c := range row {
			rec[i] = c.Text(ListSeparator)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

package schedule

import "slices"

// MergedRow is a Record annotated with the spanning cell of one merge
// column. Span 0 means the cell is covered by an earlier row's span; the
// row's other columns still render.
type MergedRow struct {
	Record
	Span    int  `json:"span"`
	Display Cell `json:"display"`
}

// Merge groups consecutive records sharing a non-empty groupKey value and
// collects the distinct valueKey values of each run in first-seen order.
// The first row of a run carries Span equal to the run length; the others
// carry Span 0. Records with an empty group value form runs of one and
// display their own value.
//
// Merge is pure: the input is not modified and equal inputs give equal
// outputs.
func Merge(records []Record, groupKey, valueKey Field) []MergedRow {
	out := make([]MergedRow, 0, len(records))
	for i := 0; i < len(records); {
		group := records[i].Value(groupKey).String()
		if group == "" {
			out = append(out, MergedRow{Record: records[i], Span: 1, Display: records[i].Value(valueKey)})
			i++
			continue
		}

		var seen []string
		j := i
		for j < len(records) && records[j].Value(groupKey).String() == group {
			for _, v := range records[j].Value(valueKey).Strings() {
				if !slices.Contains(seen, v) {
					seen = append(seen, v)
				}
			}
			j++
		}

		out = append(out, MergedRow{Record: records[i], Span: j - i, Display: runDisplay(group, seen)})
		for k := i + 1; k < j; k++ {
			out = append(out, MergedRow{Record: records[k]})
		}
		i = j
	}
	return out
}

// MergeLeagueSkins merges the league-skin column by league.
func MergeLeagueSkins(records []Record) []MergedRow {
	return Merge(records, FieldLeague, FieldLeagueSkin)
}

// runDisplay collapses a single collected value to a plain string. A run
// without values shows its group label so the league stays visible when
// the league column is hidden.
func runDisplay(group string, values []string) Cell {
	switch len(values) {
	case 0:
		return Single(group)
	case 1:
		return Single(values[0])
	default:
		return List(values...)
	}
}

package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// FieldLabel pairs a Record field with the human-readable key used by the
// upstream JSON file.
type FieldLabel struct {
	Field Field
	Label string
}

// FieldLabels is the rename table applied by Normalize.
var FieldLabels = []FieldLabel{
	{FieldSeason, "Season"},
	{FieldDate, "Date"},
	{FieldPassSkin, "Pass Skin"},
	{FieldNewHero, "New Hero"},
	{FieldGodSkin, "God Skin"},
	{FieldPassReturn, "Pass Skin Return"},
	{FieldGodReturn, "God Return"},
	{FieldLeague, "League"},
	{FieldLeagueSkin, "League Skin"},
	{FieldLegacyRateUp, "Legacy Rate Up"},
	{FieldEvent, "Festival/Event"},
}

// Normalize maps one raw upstream object onto a Record. It never fails:
// missing, null, false, zero and empty values become zero values.
func Normalize(raw map[string]any) Record {
	var r Record
	for _, fl := range FieldLabels {
		v := raw[fl.Label]
		switch fl.Field {
		case FieldSeason:
			r.Season = seasonValue(v)
		case FieldDate:
			r.Date = textValue(v)
		case FieldPassSkin:
			r.PassSkin = textValue(v)
		case FieldNewHero:
			r.NewHero = textValue(v)
		case FieldGodSkin:
			r.GodSkin = textValue(v)
		case FieldPassReturn:
			r.PassReturn = cellValue(v)
		case FieldGodReturn:
			r.GodReturn = textValue(v)
		case FieldLeague:
			r.League = textValue(v)
		case FieldLeagueSkin:
			r.LeagueSkin = cellValue(v)
		case FieldLegacyRateUp:
			r.LegacyRateUp = cellValue(v)
		case FieldEvent:
			r.Event = textValue(v)
		}
	}
	return r
}

// NormalizeAll normalizes raw in order and returns the result newest first.
// The upstream file is kept oldest first.
func NormalizeAll(raw []map[string]any) []Record {
	out := make([]Record, len(raw))
	for i, item := range raw {
		out[i] = Normalize(item)
	}
	slices.Reverse(out)
	return out
}

// Decode parses an upstream payload. The payload must be a JSON array;
// elements that are not objects normalize to empty records.
func Decode(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	raw := make([]map[string]any, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			m = nil
		}
		raw[i] = m
	}
	return NormalizeAll(raw), nil
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return ""
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return textValue(f)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case []any:
		return strings.Join(listValues(t), ", ")
	case []string:
		return strings.Join(t, ", ")
	default:
		return ""
	}
}

func cellValue(v any) Cell {
	switch t := v.(type) {
	case []any:
		return List(listValues(t)...)
	case []string:
		return List(slices.DeleteFunc(slices.Clone(t), func(s string) bool { return s == "" })...)
	default:
		return Single(textValue(v))
	}
}

func listValues(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := textValue(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func seasonValue(v any) *int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil
		}
		f = n
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	// seasons are whole numbers; fractions are rejected, not truncated
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

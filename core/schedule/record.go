package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field identifies a Record field. It doubles as the column key.
type Field string

const (
	FieldSeason       Field = "season"
	FieldDate         Field = "date"
	FieldPassSkin     Field = "passSkin"
	FieldPassReturn   Field = "passReturn"
	FieldGodSkin      Field = "godSkin"
	FieldGodReturn    Field = "godReturn"
	FieldLeague       Field = "league"
	FieldLeagueSkin   Field = "leagueSkin"
	FieldLegacyRateUp Field = "legacyRateUp"
	FieldNewHero      Field = "newHero"
	FieldEvent        Field = "event"
)

// Cell is either a single string or a list of strings. The zero Cell is
// the empty single string.
type Cell struct {
	values []string
	list   bool
}

// Single returns a single-valued cell.
func Single(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{values: []string{s}}
}

// List returns a multi-valued cell holding vals in order.
func List(vals ...string) Cell {
	return Cell{values: append([]string(nil), vals...), list: true}
}

// IsList reports whether the cell is multi-valued.
func (c Cell) IsList() bool { return c.list }

// IsEmpty reports whether the cell holds no non-empty value.
func (c Cell) IsEmpty() bool { return len(c.Strings()) == 0 }

// Strings returns the non-empty values of the cell.
func (c Cell) Strings() []string {
	out := make([]string, 0, len(c.values))
	for _, v := range c.values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// String joins the values with ", ".
func (c Cell) String() string { return strings.Join(c.Strings(), ", ") }

// Equal reports whether both cells have the same shape and values.
func (c Cell) Equal(o Cell) bool {
	if c.list != o.list || len(c.values) != len(o.values) {
		return false
	}
	for i := range c.values {
		if c.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.list {
		vals := c.values
		if vals == nil {
			vals = []string{}
		}
		return json.Marshal(vals)
	}
	return json.Marshal(c.String())
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Cell{}
	case len(data) > 0 && data[0] == '[':
		var vals []string
		if err := json.Unmarshal(data, &vals); err != nil {
			return fmt.Errorf("cell list: %w", err)
		}
		*c = List(vals...)
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("cell: %w", err)
		}
		*c = Single(s)
	}
	return nil
}

// Record is one normalized row of the skins schedule. Season is the only
// optional field; every other field defaults to the empty value.
type Record struct {
	Season       *int   `json:"season"`
	Date         string `json:"date"`
	NewHero      string `json:"newHero"`
	PassSkin     string `json:"passSkin"`
	PassReturn   Cell   `json:"passReturn"`
	GodSkin      string `json:"godSkin"`
	GodReturn    string `json:"godReturn"`
	League       string `json:"league"`
	LeagueSkin   Cell   `json:"leagueSkin"`
	LegacyRateUp Cell   `json:"legacyRateUp"`
	Event        string `json:"event"`
}

// Value returns the field as a cell. Unknown fields yield the empty cell.
func (r Record) Value(f Field) Cell {
	switch f {
	case FieldSeason:
		if r.Season == nil {
			return Cell{}
		}
		return Single(strconv.Itoa(*r.Season))
	case FieldDate:
		return Single(r.Date)
	case FieldNewHero:
		return Single(r.NewHero)
	case FieldPassSkin:
		return Single(r.PassSkin)
	case FieldPassReturn:
		return r.PassReturn
	case FieldGodSkin:
		return Single(r.GodSkin)
	case FieldGodReturn:
		return Single(r.GodReturn)
	case FieldLeague:
		return Single(r.League)
	case FieldLeagueSkin:
		return r.LeagueSkin
	case FieldLegacyRateUp:
		return r.LegacyRateUp
	case FieldEvent:
		return Single(r.Event)
	default:
		return Cell{}
	}
}

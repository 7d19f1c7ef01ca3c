package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestNormalize_Defaults(t *testing.T) {
	got := Normalize(map[string]any{"Season": float64(5), "Pass Skin": "Foo"})
	want := Record{Season: intPtr(5), PassSkin: "Foo"}
	assert.Equal(t, want, got)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"season": 5, "date": "", "newHero": "", "passSkin": "Foo",
		"passReturn": "", "godSkin": "", "godReturn": "", "league": "",
		"leagueSkin": "", "legacyRateUp": "", "event": ""
	}`, string(data))
}

func TestNormalize_AllLabels(t *testing.T) {
	raw := map[string]any{
		"Season":           json.Number("12"),
		"Date":             "2024-05-01",
		"Pass Skin":        "Pass A",
		"New Hero":         "Hero",
		"God Skin":         "God A",
		"Pass Skin Return": []any{"Old 1", "", "Old 2"},
		"God Return":       "God B",
		"League":           "Spring",
		"League Skin":      []any{"L1"},
		"Legacy Rate Up":   "Legacy",
		"Festival/Event":   "Festival",
		"Unrelated":        "ignored",
	}
	got := Normalize(raw)
	assert.Equal(t, 12, *got.Season)
	assert.Equal(t, "2024-05-01", got.Date)
	assert.Equal(t, "Pass A", got.PassSkin)
	assert.Equal(t, "Hero", got.NewHero)
	assert.Equal(t, "God A", got.GodSkin)
	assert.True(t, got.PassReturn.Equal(List("Old 1", "Old 2")))
	assert.Equal(t, "God B", got.GodReturn)
	assert.Equal(t, "Spring", got.League)
	assert.True(t, got.LeagueSkin.Equal(List("L1")))
	assert.True(t, got.LegacyRateUp.Equal(Single("Legacy")))
	assert.Equal(t, "Festival", got.Event)
}

func TestNormalize_FalsyValues(t *testing.T) {
	got := Normalize(map[string]any{
		"Season":    float64(0),
		"Date":      nil,
		"Pass Skin": false,
		"God Skin":  float64(0),
		"League":    map[string]any{"nested": true},
	})
	assert.Equal(t, Record{}, got)
	assert.Nil(t, got.Season)
}

func TestNormalize_Coercion(t *testing.T) {
	got := Normalize(map[string]any{
		"Season":   " 7 ",
		"Date":     float64(2024),
		"God Skin": []any{"A", "B"},
	})
	require.NotNil(t, got.Season)
	assert.Equal(t, 7, *got.Season)
	assert.Equal(t, "2024", got.Date)
	assert.Equal(t, "A, B", got.GodSkin)

	assert.Nil(t, Normalize(map[string]any{"Season": "spring"}).Season)
	assert.Nil(t, Normalize(map[string]any{"Season": float64(-3)}).Season)
}

func TestNormalizeAll_Reverses(t *testing.T) {
	raw := []map[string]any{{"Date": "A"}, {"Date": "B"}, {"Date": "C"}}
	got := NormalizeAll(raw)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{got[0].Date, got[1].Date, got[2].Date})
}

func TestDecode(t *testing.T) {
	payload := []byte(`[
		{"Season": 1, "Date": "Jan", "League": "Alpha", "League Skin": "X"},
		"not an object",
		{"Season": 3, "Date": "Mar", "League Skin": ["Y", "Z"]}
	]`)
	got, err := Decode(payload)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Mar", got[0].Date)
	assert.True(t, got[0].LeagueSkin.Equal(List("Y", "Z")))
	assert.Equal(t, Record{}, got[1])
	assert.Equal(t, 1, *got[2].Season)
}

func TestDecode_NotAnArray(t *testing.T) {
	_, err := Decode([]byte(`{"Season": 1}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`garbage`))
	assert.Error(t, err)
}

func TestCell_JSON(t *testing.T) {
	for _, tc := range []struct {
		name string
		cell Cell
		want string
	}{
		{"zero", Cell{}, `""`},
		{"single", Single("a"), `"a"`},
		{"list", List("a", "b"), `["a","b"]`},
		{"empty list", List(), `[]`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.cell)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))

			var back Cell
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tc.cell.IsList(), back.IsList())
			assert.Equal(t, tc.cell.Strings(), back.Strings())
		})
	}
}

func TestDecode_NumbersWithoutExponent(t *testing.T) {
	got, err := Decode([]byte(`[{"Date": 1e3, "Pass Skin": 2.50, "League Skin": [1.0e1, 0], "New Hero": 0.0}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1000", got[0].Date)
	assert.Equal(t, "2.5", got[0].PassSkin)
	assert.Equal(t, []string{"10"}, got[0].LeagueSkin.Strings())
	assert.Equal(t, "", got[0].NewHero)
}

func TestNormalize_FractionalSeason(t *testing.T) {
	assert.Nil(t, Normalize(map[string]any{"Season": 5.7}).Season)
	assert.Nil(t, Normalize(map[string]any{"Season": json.Number("5.5")}).Season)
	assert.Nil(t, Normalize(map[string]any{"Season": "3.2"}).Season)
	got := Normalize(map[string]any{"Season": json.Number("6.0")})
	require.NotNil(t, got.Season)
	assert.Equal(t, 6, *got.Season)
}

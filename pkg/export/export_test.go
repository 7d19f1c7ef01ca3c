package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/render"
)

func snapshot() *schedule.Snapshot {
	return schedule.NewSnapshot([]schedule.Record{
		{Date: "2023-03", League: "Alpha", LeagueSkin: schedule.Single("Ember")},
		{Date: "2023-02", League: "Alpha", LeagueSkin: schedule.List("Frost", "Ember")},
		{Date: "2023-01", League: "Beta"},
	}, time.Unix(0, 0))
}

func TestWriteCSV(t *testing.T) {
	vis, err := schedule.NewVisibilityWith(schedule.FieldDate, schedule.FieldLeagueSkin)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, render.FromSnapshot(snapshot(), vis)))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "League Skin"},
		{"2023-03", "Ember; Frost"},
		{"2023-02", ""},
		{"2023-01", "Beta"},
	}, recs)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, snapshot().Records))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "2023-03", out[0]["date"])
}

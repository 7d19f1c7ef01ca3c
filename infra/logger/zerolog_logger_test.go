package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "loader", "info").With("snapshot", "abc")
	l.Debugf("hidden")
	l.Infof("loaded %d records", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "loader", entry["component"])
	assert.Equal(t, "abc", entry["snapshot"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "loaded 3 records", entry["message"])
}

func TestZerologLogger_Debugw(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "api", "").Debugw("toggle", map[string]any{"column": "league"})
	assert.Contains(t, buf.String(), `"column":"league"`)
}

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/kgc/core/metrics"
)

func TestPromSink_RecordLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, sink.RecordLoad(coremetrics.LoadEvent{Success: true, Records: 12, Runs: 4, Duration: 80 * time.Millisecond, Time: now}))
	require.NoError(t, sink.RecordLoad(coremetrics.LoadEvent{Error: "boom", Duration: time.Second, Time: now.Add(time.Minute)}))

	expected := `
# HELP schedule_loads_total Total number of schedule load attempts
# TYPE schedule_loads_total counter
schedule_loads_total{outcome="failure"} 1
schedule_loads_total{outcome="success"} 1
`
	if err := testutil.CollectAndCompare(sink.loads, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	assert.Equal(t, 12.0, testutil.ToFloat64(sink.records))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.runs))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(sink.lastOK))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.duration))
}

func TestPromSink_RecordToggle(t *testing.T) {
	sink, err := NewPromSinkWithRegistry(prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, sink.RecordToggle(coremetrics.ToggleEvent{Column: "league", Visible: true}))
	require.NoError(t, sink.RecordToggle(coremetrics.ToggleEvent{Column: "league", Visible: true}))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.toggles.WithLabelValues("league", "true")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, a.RecordLoad(coremetrics.LoadEvent{Success: true}))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.loads.WithLabelValues("success")))
}

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/internal/eventbus"
)

func TestEntryFor(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := schedule.NewSnapshot([]schedule.Record{{League: "Alpha"}, {League: "Alpha"}}, now)
	e, ok := EntryFor(events.ScheduleLoaded{Snapshot: snap, Stats: schedule.Stats{Runs: 1}, Duration: 40 * time.Millisecond})
	require.True(t, ok)
	assert.Equal(t, OutcomeSuccess, e.Outcome)
	assert.Equal(t, snap.ID, e.SnapshotID)
	assert.Equal(t, 2, e.Records)
	assert.Equal(t, 1, e.Runs)
	assert.Equal(t, int64(40), e.DurationMS)
	assert.True(t, e.Timestamp.Equal(now))
	assert.NotEmpty(t, e.ID)

	e, ok = EntryFor(events.LoadFailed{AttemptID: "att", Err: errors.New("boom"), Time: now})
	require.True(t, ok)
	assert.Equal(t, OutcomeFailure, e.Outcome)
	assert.Equal(t, "att", e.ID)
	assert.Equal(t, "boom", e.Error)

	_, ok = EntryFor(events.ColumnToggled{Column: schedule.FieldLeague})
	assert.False(t, ok)
}

func TestStartRecorder(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "history.jsonl"), 0, 0, 0)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartRecorder(ctx, bus, store, nil)

	bus.Publish(events.ScheduleLoaded{Snapshot: schedule.NewSnapshot(nil, time.Now())})
	bus.Publish(events.ColumnToggled{Column: schedule.FieldLeague})
	bus.Publish(events.LoadFailed{Err: errors.New("boom"), Time: time.Now().Add(time.Second)})

	require.Eventually(t, func() bool {
		out, err := store.Query(context.Background(), Query{})
		return err == nil && len(out) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestStartRecorder_StopsOnBusClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	bus := eventbus.New()
	done := StartRecorder(context.Background(), bus, store, nil)
	bus.Close()
	<-done
}

package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/internal/eventbus"
)

type mockPublisher struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockPublisher) Publish(topic string, payload []byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(topic, payload, retained)
	return args.Error(0)
}

func TestNotifier_Updated(t *testing.T) {
	pub := &mockPublisher{}
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recs := []schedule.Record{{League: "Alpha", LeagueSkin: schedule.Single("X")}, {League: "Alpha"}}
	snap := schedule.NewSnapshot(recs, now)
	stats := schedule.ComputeStats(snap.Merged)

	var payload []byte
	pub.On("Publish", "portfolio/schedule/updated", mock.Anything, true).
		Run(func(args mock.Arguments) { payload = args.Get(1).([]byte) }).
		Return(nil).Once()

	n := NewNotifier(pub, "portfolio", nil)
	require.NoError(t, n.Notify(events.ScheduleLoaded{Snapshot: snap, Stats: stats}))
	pub.AssertExpectations(t)

	var msg UpdatedMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, snap.ID, msg.SnapshotID)
	assert.Equal(t, 2, msg.Records)
	assert.Equal(t, 1, msg.Runs)
	assert.Equal(t, []string{"Alpha"}, msg.Leagues)
	assert.True(t, msg.LoadedAt.Equal(now))
}

func TestNotifier_ErrorAndIgnored(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", "kgc/schedule/error", mock.MatchedBy(func(b []byte) bool {
		var m ErrorMessage
		return json.Unmarshal(b, &m) == nil && m.Error == "boom"
	}), false).Return(errors.New("offline")).Once()

	n := NewNotifier(pub, "", nil)
	assert.EqualError(t, n.Notify(events.LoadFailed{Err: errors.New("boom"), Time: time.Now()}), "offline")
	assert.NoError(t, n.Notify(events.ColumnToggled{Column: schedule.FieldLeague}))
	pub.AssertExpectations(t)
}

func TestNotifier_Start(t *testing.T) {
	pub := &mockPublisher{}
	called := make(chan struct{}, 1)
	pub.On("Publish", "kgc/schedule/error", mock.Anything, false).
		Run(func(mock.Arguments) { called <- struct{}{} }).Return(nil)

	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := NewNotifier(pub, "kgc", nil).Start(ctx, bus)
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, time.Millisecond)
	bus.Publish(events.LoadFailed{Err: errors.New("x")})

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("publish not called")
	}
	cancel()
	<-done
	assert.Equal(t, 0, bus.Subscribers())
}

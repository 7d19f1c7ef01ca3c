package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/kgc/core/events"
	coremetrics "github.com/kilianp07/kgc/core/metrics"
	"github.com/kilianp07/kgc/infra/logger"
	"github.com/kilianp07/kgc/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector goroutine has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.ScheduleLoaded:
		return sink.RecordLoad(coremetrics.LoadEvent{
			SnapshotID: e.Snapshot.ID,
			Success:    true,
			Records:    len(e.Snapshot.Records),
			Runs:       e.Stats.Runs,
			Duration:   e.Duration,
			Time:       e.Snapshot.LoadedAt,
		})
	case events.LoadFailed:
		errStr := ""
		if e.Err != nil {
			errStr = e.Err.Error()
		}
		return sink.RecordLoad(coremetrics.LoadEvent{
			Duration: e.Duration,
			Error:    errStr,
			Time:     e.Time,
		})
	case events.ColumnToggled:
		if r, ok := sink.(coremetrics.ToggleRecorder); ok {
			t := e.Time
			if t.IsZero() {
				t = time.Now()
			}
			return r.RecordToggle(coremetrics.ToggleEvent{Column: string(e.Column), Visible: e.Visible, Time: t})
		}
	}
	return nil
}

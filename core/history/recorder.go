package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/logger"
	"github.com/kilianp07/kgc/internal/eventbus"
)

// EntryFor converts a load event into a journal entry. ok is false for
// events that are not load results.
func EntryFor(ev eventbus.Event) (Entry, bool) {
	switch e := ev.(type) {
	case events.ScheduleLoaded:
		return Entry{
			ID:         uuid.NewString(),
			Timestamp:  e.Snapshot.LoadedAt,
			DurationMS: e.Duration.Milliseconds(),
			Outcome:    OutcomeSuccess,
			SnapshotID: e.Snapshot.ID,
			Records:    len(e.Snapshot.Records),
			Runs:       e.Stats.Runs,
		}, true
	case events.LoadFailed:
		id := e.AttemptID
		if id == "" {
			id = uuid.NewString()
		}
		entry := Entry{
			ID:         id,
			Timestamp:  e.Time,
			DurationMS: e.Duration.Milliseconds(),
			Outcome:    OutcomeFailure,
		}
		if e.Err != nil {
			entry.Error = e.Err.Error()
		}
		return entry, true
	}
	return Entry{}, false
}

// StartRecorder appends every load result published on bus to store until
// ctx is canceled or the bus is closed. The returned channel closes when the
// goroutine exits.
func StartRecorder(ctx context.Context, bus eventbus.EventBus, store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
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
				entry, ok := EntryFor(ev)
				if !ok {
					continue
				}
				actx, cancel := context.WithTimeout(ctx, 5*time.Second)
				if err := store.Append(actx, entry); err != nil {
					log.Errorf("append history entry %s: %v", entry.ID, err)
				}
				cancel()
			}
		}
	}()
	return done
}

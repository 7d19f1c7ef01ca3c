package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/logger"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/internal/eventbus"
	"github.com/kilianp07/kgc/source"
)

// Refresher loads the schedule into the store and announces each result on
// the bus. Loads are serialized so snapshots are installed in request order.
type Refresher struct {
	loader source.Loader
	store  *schedule.Store
	bus    eventbus.EventBus
	log    logger.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewRefresher wires a refresher. bus may be nil.
func NewRefresher(loader source.Loader, store *schedule.Store, bus eventbus.EventBus, log logger.Logger) *Refresher {
	return &Refresher{loader: loader, store: store, bus: bus, log: logger.OrNop(log), now: time.Now}
}

// Reload performs one load. On failure the current snapshot is kept and the
// error is recorded on the store. A load cut short by ctx is not a failure:
// the store and the bus are left untouched.
func (r *Refresher) Reload(ctx context.Context) (*schedule.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()
	records, err := r.loader.Load(ctx)
	elapsed := r.now().Sub(start)
	if err != nil && ctx.Err() != nil {
		r.log.Debugf("schedule load canceled after %s: %v", elapsed, err)
		return nil, err
	}
	if err != nil {
		r.store.Fail(err)
		r.log.Errorf("schedule load failed after %s: %v", elapsed, err)
		ev := events.LoadFailed{AttemptID: uuid.NewString(), Err: err, Duration: elapsed, Time: r.now()}
		if prev := r.store.Current(); prev != nil {
			ev.PreviousSnapshotID = prev.ID
		}
		r.publish(ev)
		return nil, err
	}
	snap := schedule.NewSnapshot(records, r.now())
	r.store.Replace(snap)
	stats := schedule.ComputeStats(snap.Merged)
	r.log.Infof("schedule loaded: %d records, %d league runs, snapshot %s", len(records), stats.Runs, snap.ID)
	r.publish(events.ScheduleLoaded{Snapshot: snap, Stats: stats, Duration: elapsed})
	return snap, nil
}

func (r *Refresher) publish(ev eventbus.Event) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

// Run loads once, then every interval when it is positive, until ctx is
// canceled. Load failures are logged and do not stop the loop.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) error {
	_, _ = r.Reload(ctx)
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = r.Reload(ctx)
		}
	}
}

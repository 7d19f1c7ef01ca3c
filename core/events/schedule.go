package events

import (
	"time"

	"github.com/kilianp07/kgc/core/schedule"
)

// ScheduleLoaded is published after a snapshot replaced the current one.
type ScheduleLoaded struct {
	Snapshot *schedule.Snapshot
	Stats    schedule.Stats
	Duration time.Duration
}

// LoadFailed is published when a load attempt returned an error.
// PreviousSnapshotID names the snapshot still served, empty before the first
// successful load.
type LoadFailed struct {
	AttemptID          string
	PreviousSnapshotID string
	Err                error
	Duration  time.Duration
	Time      time.Time
}

// ColumnToggled is published for every visibility change.
type ColumnToggled struct {
	Column  schedule.Field
	Visible bool
	Time    time.Time
}

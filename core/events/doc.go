// Package events defines the schedule events emitted on the event bus.
//
// Available event types:
//   - ScheduleLoaded: a load succeeded and a new snapshot is current
//   - LoadFailed: a load attempt failed, the previous snapshot is kept
//   - ColumnToggled: a column visibility changed
package events

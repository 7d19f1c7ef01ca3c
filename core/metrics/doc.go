// Package metrics defines the observability contract of the schedule service.
// Sinks record every load attempt and, when they implement ToggleRecorder,
// column visibility changes. The factory helpers build sinks from
// configuration and return a MultiSink when several are configured.
package metrics

package metrics

import "time"

// LoadEvent describes one load attempt of the schedule.
type LoadEvent struct {
	SnapshotID string
	Success    bool
	Records    int
	Runs       int
	Duration   time.Duration
	Error      string
	Time       time.Time
}

// Outcome returns "success" or "failure".
func (e LoadEvent) Outcome() string {
	if e.Success {
		return "success"
	}
	return "failure"
}

// MetricsSink records schedule loads for observability purposes.
type MetricsSink interface {
	RecordLoad(ev LoadEvent) error
}

// ToggleEvent is a column visibility change.
type ToggleEvent struct {
	Column  string
	Visible bool
	Time    time.Time
}

// ToggleRecorder records column toggles.
type ToggleRecorder interface {
	RecordToggle(ev ToggleEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordLoad(LoadEvent) error     { return nil }
func (NopSink) RecordToggle(ToggleEvent) error { return nil }

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordLoad forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordLoad(ev LoadEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordLoad(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordToggle forwards toggles to sinks that support them.
func (m *MultiSink) RecordToggle(ev ToggleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ToggleRecorder); ok {
			if err := rec.RecordToggle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

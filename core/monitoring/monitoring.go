// Package monitoring defines error reporting for the schedule service.
package monitoring

import (
	"context"
	"time"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/internal/eventbus"
)

// Config configures the error reporter. An empty DSN disables it.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
}

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// Tags attached to captured load failures.
const (
	TagComponent = "component"
	TagAttempt   = "attempt_id"
	TagSource    = "source"
	TagSnapshot  = "served_snapshot"
)

// LoadFailureTags describes a failed load for the reporter. source is the
// schedule URL or file path.
func LoadFailureTags(ev events.LoadFailed, source string) map[string]string {
	served := ev.PreviousSnapshotID
	if served == "" {
		served = "none"
	}
	return map[string]string{
		TagComponent: "loader",
		TagAttempt:   ev.AttemptID,
		TagSource:    source,
		TagSnapshot:  served,
	}
}

// StartReporter captures every LoadFailed event on the bus, tagged with
// source. The returned channel closes once the goroutine exits.
func StartReporter(ctx context.Context, bus eventbus.EventBus, mon Monitor, source string) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || mon == nil {
		close(done)
		return done
	}
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
				if f, ok := ev.(events.LoadFailed); ok {
					mon.CaptureException(f.Err, LoadFailureTags(f, source))
				}
			}
		}
	}()
	return done
}

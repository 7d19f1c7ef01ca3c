// Package monitoring reports schedule load failures and panics to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/kgc/core/monitoring"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. An empty DSN yields a NopMonitor.
func NewSentryMonitor(cfg coremon.Config) (coremon.Monitor, error) {
	return newSentryMonitor(cfg, nil)
}

func newSentryMonitor(cfg coremon.Config, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException reports err with tags. Load failures from the same source
// are grouped into one issue whatever the error text, and the tags are also
// attached as the "schedule" context.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if len(tags) > 0 {
			sc := sentry.Context{}
			for k, v := range tags {
				sc[k] = v
			}
			scope.SetContext("schedule", sc)
		}
		if tags[coremon.TagComponent] == "loader" {
			scope.SetFingerprint([]string{"schedule-load-failure", tags[coremon.TagSource]})
		}
		sentry.CaptureException(err)
	})
}

// Recover reports a panic of the refresh loop, then re-panics.
func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag(coremon.TagComponent, "refresher")
			sentry.CurrentHub().Recover(r)
		})
		sentry.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }

// Package history keeps an append-only journal of schedule load attempts.
package history

import (
	"context"
	"fmt"
	"time"
)

// Outcome of a load attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Entry captures one load attempt.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    Outcome   `json:"outcome"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Records    int       `json:"records"`
	Runs       int       `json:"runs"`
	Error      string    `json:"error,omitempty"`
}

// Query defines filters for retrieving entries. Zero values match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Outcome Outcome
	// Limit keeps only the most recent entries when positive.
	Limit int
}

// Match reports whether e passes the time and outcome filters.
func (q Query) Match(e Entry) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.Outcome != "" && e.Outcome != q.Outcome {
		return false
	}
	return true
}

// trim applies Limit to entries sorted oldest first.
func (q Query) trim(entries []Entry) []Entry {
	if q.Limit > 0 && len(entries) > q.Limit {
		return entries[len(entries)-q.Limit:]
	}
	return entries
}

// Store persists entries and supports querying. Query returns entries
// oldest first.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Config defines settings for history storage and rotation.
type Config struct {
	// Enabled turns the journal on.
	Enabled bool `json:"enabled"`
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation of the JSONL file, in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "schedule-history.jsonl"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Open returns the store selected by cfg.Backend.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == "sqlite" {
		return NewSQLiteStore(cfg.Path)
	}
	return NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
}

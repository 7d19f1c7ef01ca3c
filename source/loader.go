// Package source fetches the raw skins schedule and hands back normalized
// records. Two modes exist: "http" polls the published JSON document and
// "file" reads a local copy for development and the CLI.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/kgc/auth"
	"github.com/kilianp07/kgc/core/schedule"
)

// ErrLoadFailure wraps every fetch or decode error returned by a Loader.
var ErrLoadFailure = errors.New("failed to load skins data")

// Loader returns the normalized schedule, newest entry first.
type Loader interface {
	Load(ctx context.Context) ([]schedule.Record, error)
}

// Config selects and configures the Loader.
type Config struct {
	// Mode is "http" or "file".
	Mode string `json:"mode"`
	URL  string `json:"url"`
	Path string `json:"path"`
	// CacheBustParam is the query parameter carrying the request timestamp.
	CacheBustParam string `json:"cache_bust_param"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	UserAgent      string `json:"user_agent"`
	// RefreshIntervalSeconds reloads periodically when positive.
	RefreshIntervalSeconds int `json:"refresh_interval_seconds"`
	// Auth adds a client-credentials bearer token to http requests.
	Auth auth.Conf `json:"auth"`
}

const (
	ModeHTTP = "http"
	ModeFile = "file"

	defaultCacheBustParam = "t"
	defaultTimeout        = 10 * time.Second
	defaultUserAgent      = "kgc-schedule/1.0"
)

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = ModeHTTP
	}
	if c.CacheBustParam == "" {
		c.CacheBustParam = defaultCacheBustParam
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultTimeout / time.Second)
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
}

// Validate checks mandatory fields for the selected mode.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeHTTP:
		if c.URL == "" {
			return fmt.Errorf("source: url is required in http mode")
		}
	case ModeFile:
		if c.Path == "" {
			return fmt.Errorf("source: path is required in file mode")
		}
	default:
		return fmt.Errorf("source: unknown mode %q", c.Mode)
	}
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("source: refresh_interval_seconds must be >= 0")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}

// RefreshInterval returns the reload period, zero when loading once.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// NewLoader builds the Loader matching cfg.Mode.
func NewLoader(cfg Config) (Loader, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case ModeFile:
		return NewFileLoader(cfg.Path), nil
	default:
		return NewHTTPLoader(cfg)
	}
}

func loadFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrLoadFailure, err)
}

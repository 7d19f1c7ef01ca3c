package config

import (
	"fmt"

	"github.com/kilianp07/kgc/core/schedule"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr"`
	// ReloadToken protects POST /api/schedule/reload when set.
	ReloadToken string `json:"reload_token"`
	// AllowedOrigins are echoed in CORS headers; "*" allows any origin.
	AllowedOrigins []string `json:"allowed_origins"`
	// Mode is the gin mode: "release", "debug" or "test".
	Mode string `json:"mode"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	switch c.Mode {
	case "release", "debug", "test":
	default:
		return fmt.Errorf("server: unknown mode %q", c.Mode)
	}
	return nil
}

// ColumnsConfig overrides the initially visible columns.
type ColumnsConfig struct {
	Visible []string `json:"visible"`
}

// Validate rejects unknown column keys.
func (c ColumnsConfig) Validate() error {
	_, err := c.Visibility()
	return err
}

// Visibility builds the initial column state. An empty list keeps the
// schema defaults.
func (c ColumnsConfig) Visibility() (*schedule.Visibility, error) {
	if len(c.Visible) == 0 {
		return schedule.NewVisibility(), nil
	}
	keys := make([]schedule.Field, len(c.Visible))
	for i, k := range c.Visible {
		keys[i] = schedule.Field(k)
	}
	v, err := schedule.NewVisibilityWith(keys...)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	return v, nil
}

// LiveConfig configures the WebSocket stream.
type LiveConfig struct {
	Enabled bool `json:"enabled"`
	// Buffer is the per-client queue length; slow clients miss messages.
	Buffer              int `json:"buffer"`
	PingIntervalSeconds int `json:"ping_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *LiveConfig) SetDefaults() {
	if c.Buffer <= 0 {
		c.Buffer = 16
	}
	if c.PingIntervalSeconds <= 0 {
		c.PingIntervalSeconds = 30
	}
}

// Validate checks mandatory fields.
func (c LiveConfig) Validate() error {
	if c.Buffer > 1024 {
		return fmt.Errorf("live: buffer must be <= 1024")
	}
	return nil
}

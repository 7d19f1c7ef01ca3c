// Package config loads the service configuration from YAML or JSON files
// with K_ prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/kgc/core/history"
	"github.com/kilianp07/kgc/core/metrics"
	"github.com/kilianp07/kgc/core/monitoring"
	"github.com/kilianp07/kgc/infra/mqtt"
	"github.com/kilianp07/kgc/source"
)

type Config struct {
	Source  source.Config  `json:"source"`
	Server  ServerConfig   `json:"server"`
	Columns ColumnsConfig  `json:"columns"`
	History history.Config `json:"history"`
	Metrics metrics.Config `json:"metrics"`
	MQTT    mqtt.Config    `json:"mqtt"`
	Live    LiveConfig     `json:"live"`

	Monitoring monitoring.Config `json:"monitoring"`
}

// Load reads path, applies environment overrides, defaults and validation.
// An empty path builds the configuration from the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// K_SOURCE__URL overrides source.url
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Source.SetDefaults()
	c.Server.SetDefaults()
	c.History.SetDefaults()
	c.MQTT.SetDefaults()
	c.Live.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Columns.Validate(); err != nil {
		return err
	}
	if c.History.Enabled {
		if err := c.History.Validate(); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return c.Live.Validate()
}

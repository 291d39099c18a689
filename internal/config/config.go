package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: ZOOMDECK_SYNC__POLL_INTERVAL_MS -> sync.poll_interval_ms.
const EnvPrefix = "ZOOMDECK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ZOOMDECK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validEasings = map[Easing]bool{
	EaseInOut: true,
	EaseOut:   true,
	EaseIn:    true,
	Linear:    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.HistoryRetentionDays < 0 {
		return fmt.Errorf("server.history_retention_days must be non-negative")
	}
	if c.Sync.PollIntervalMs <= 0 {
		return fmt.Errorf("sync.poll_interval_ms must be positive")
	}
	if c.Sync.RequestTimeoutMs < 0 {
		return fmt.Errorf("sync.request_timeout_ms must be non-negative")
	}
	if s := c.Navigation.TransitionSpeedMs; s < 500 || s > 3000 {
		return fmt.Errorf("navigation.transition_speed_ms %d must be within 500..3000", s)
	}
	if c.Navigation.TransitionEasing != "" && !validEasings[c.Navigation.TransitionEasing] {
		return fmt.Errorf("invalid navigation.transition_easing %q", c.Navigation.TransitionEasing)
	}
	if c.Navigation.ZoomDepth <= 0 {
		return fmt.Errorf("navigation.zoom_depth must be positive")
	}
	if c.Timer.Minutes < 0 || c.Timer.Seconds < 0 || c.Timer.Seconds > 59 {
		return fmt.Errorf("timer minutes/seconds out of range")
	}
	if c.Timer.WarningThresholdMinutes < 0 {
		return fmt.Errorf("timer.warning_threshold_minutes must be non-negative")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport width/height must be positive")
	}
	return nil
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sync.PollIntervalMs) * time.Millisecond
}

// TransitionSpeed returns the navigation lock window as a duration.
func (c *Config) TransitionSpeed() time.Duration {
	return time.Duration(c.Navigation.TransitionSpeedMs) * time.Millisecond
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Sync.RequestTimeoutMs) * time.Millisecond
}

// HistoryRetention returns how long change history is kept. Zero keeps it
// forever.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.Server.HistoryRetentionDays) * 24 * time.Hour
}

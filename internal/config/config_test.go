package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Sync.PollIntervalMs != 1000 {
		t.Errorf("expected default poll interval 1000, got %d", cfg.Sync.PollIntervalMs)
	}
	if cfg.Navigation.TransitionSpeedMs != 1500 {
		t.Errorf("expected default transition speed 1500, got %d", cfg.Navigation.TransitionSpeedMs)
	}
	if cfg.Timer.WarningThresholdMinutes != 5 {
		t.Errorf("expected default warning threshold 5, got %d", cfg.Timer.WarningThresholdMinutes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zoomdeck.yml")

	original := DefaultConfig()
	original.UserID = "u-presenter"
	original.Server.Port = 9090
	original.Navigation.TransitionSpeedMs = 800
	original.Navigation.EnableRotation = true
	original.Timer.Enabled = true
	original.Timer.Minutes = 1
	original.Timer.Seconds = 30

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.UserID != "u-presenter" {
		t.Errorf("user_id: got %q", loaded.UserID)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.TransitionSpeed() != 800*time.Millisecond {
		t.Errorf("transition speed: got %v", loaded.TransitionSpeed())
	}
	if !loaded.Navigation.EnableRotation {
		t.Error("enable_rotation should round-trip")
	}
	if !loaded.Timer.Enabled || loaded.Timer.Minutes != 1 || loaded.Timer.Seconds != 30 {
		t.Errorf("timer: got %+v", loaded.Timer)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("expected 1s poll interval, got %v", cfg.PollInterval())
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ZOOMDECK_USER_ID", "env-user")
	t.Setenv("ZOOMDECK_SYNC__POLL_INTERVAL_MS", "250")
	t.Setenv("ZOOMDECK_SERVER__PORT", "7000")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserID != "env-user" {
		t.Errorf("user_id: got %q", cfg.UserID)
	}
	if cfg.Sync.PollIntervalMs != 250 {
		t.Errorf("poll interval: got %d", cfg.Sync.PollIntervalMs)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"transition too fast", func(c *Config) { c.Navigation.TransitionSpeedMs = 100 }},
		{"transition too slow", func(c *Config) { c.Navigation.TransitionSpeedMs = 5000 }},
		{"zero poll interval", func(c *Config) { c.Sync.PollIntervalMs = 0 }},
		{"bad easing", func(c *Config) { c.Navigation.TransitionEasing = "bounce" }},
		{"zero zoom depth", func(c *Config) { c.Navigation.ZoomDepth = 0 }},
		{"seconds over 59", func(c *Config) { c.Timer.Seconds = 75 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"empty viewport", func(c *Config) { c.Viewport.Width = 0 }},
		{"negative retention", func(c *Config) { c.Server.HistoryRetentionDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWizardValidators(t *testing.T) {
	if notBlank("  ") == nil {
		t.Error("blank user id accepted")
	}
	if notBlank("alice") != nil {
		t.Error("user id rejected")
	}
	for _, s := range []string{"-1", "ten", ""} {
		if nonNegativeInt(s) == nil {
			t.Errorf("nonNegativeInt(%q) accepted", s)
		}
	}
	if nonNegativeInt(" 20 ") != nil {
		t.Error("20 rejected")
	}
}

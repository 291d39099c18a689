package config

// Config is the top-level zoomdeck configuration, corresponding to zoomdeck.yml.
type Config struct {
	UserID     string           `yaml:"user_id" koanf:"user_id"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	Sync       SyncConfig       `yaml:"sync" koanf:"sync"`
	Navigation NavigationConfig `yaml:"navigation" koanf:"navigation"`
	Timer      TimerConfig      `yaml:"timer" koanf:"timer"`
	Viewport   ViewportConfig   `yaml:"viewport" koanf:"viewport"`
	Logging    LoggingConfig    `yaml:"logging" koanf:"logging"`
}

// ServerConfig holds settings for the reference presentation store server.
type ServerConfig struct {
	Port                 int    `yaml:"port" koanf:"port"`
	DataDir              string `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins      bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	HistoryRetentionDays int    `yaml:"history_retention_days" koanf:"history_retention_days"`
}

// SyncConfig controls how sessions talk to the remote store.
type SyncConfig struct {
	BaseURL          string `yaml:"base_url" koanf:"base_url"`
	PollIntervalMs   int    `yaml:"poll_interval_ms" koanf:"poll_interval_ms"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" koanf:"request_timeout_ms"`
}

// Easing names the CSS-style easing curve a renderer should use for transitions.
type Easing string

const (
	EaseInOut Easing = "ease-in-out"
	EaseOut   Easing = "ease-out"
	EaseIn    Easing = "ease-in"
	Linear    Easing = "linear"
)

// NavigationConfig tunes transitions and auto-fit.
type NavigationConfig struct {
	TransitionSpeedMs int     `yaml:"transition_speed_ms" koanf:"transition_speed_ms"`
	TransitionEasing  Easing  `yaml:"transition_easing" koanf:"transition_easing"`
	ZoomDepth         float64 `yaml:"zoom_depth" koanf:"zoom_depth"`
	EnableRotation    bool    `yaml:"enable_rotation" koanf:"enable_rotation"`
}

// TimerConfig configures the presenter countdown.
type TimerConfig struct {
	Enabled                 bool `yaml:"enabled" koanf:"enabled"`
	Minutes                 int  `yaml:"minutes" koanf:"minutes"`
	Seconds                 int  `yaml:"seconds" koanf:"seconds"`
	WarningThresholdMinutes int  `yaml:"warning_threshold_minutes" koanf:"warning_threshold_minutes"`
	WidgetWidth             int  `yaml:"widget_width" koanf:"widget_width"`
	WidgetHeight            int  `yaml:"widget_height" koanf:"widget_height"`
}

// ViewportConfig is the fallback canvas size used when the platform cannot report one.
type ViewportConfig struct {
	Width  int `yaml:"width" koanf:"width"`
	Height int `yaml:"height" koanf:"height"`
}

// LoggingConfig mirrors log.Options.
type LoggingConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
	Source bool   `yaml:"source" koanf:"source"`
	File   string `yaml:"file" koanf:"file"`
}

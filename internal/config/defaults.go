package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                 8080,
			DataDir:              "data",
			AllowAllOrigins:      true,
			HistoryRetentionDays: 30,
		},
		Sync: SyncConfig{
			BaseURL:          "http://localhost:8080",
			PollIntervalMs:   1000,
			RequestTimeoutMs: 5000,
		},
		Navigation: NavigationConfig{
			TransitionSpeedMs: 1500,
			TransitionEasing:  EaseInOut,
			ZoomDepth:         1,
		},
		Timer: TimerConfig{
			Minutes:                 30,
			WarningThresholdMinutes: 5,
			WidgetWidth:             150,
			WidgetHeight:            120,
		},
		Viewport: ViewportConfig{Width: 600, Height: 600},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
	}
}

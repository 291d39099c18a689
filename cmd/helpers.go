package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ziadkadry99/zoomdeck/internal/config"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
	"github.com/ziadkadry99/zoomdeck/internal/log"
)

// loadConfig loads the config, applies flag overrides, validates it and
// initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `zoomdeck init` to create a config file", err)
	}
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	if serverURL != "" {
		cfg.Sync.BaseURL = serverURL
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Init(log.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	return cfg, nil
}

// newRemoteStore returns the HTTP client for the configured presentation server.
func newRemoteStore(cfg *config.Config) *livesync.HTTPStore {
	return livesync.NewHTTPStore(cfg.Sync.BaseURL, cfg.UserID, &http.Client{Timeout: cfg.RequestTimeout()})
}

// logNotifier turns session toasts into log records.
func logNotifier(logger *slog.Logger) livesync.Notifier {
	return livesync.NotifierFunc(func(level livesync.Level, msg string) {
		switch level {
		case livesync.LevelError:
			logger.Error(msg)
		default:
			logger.Info(msg, "level", level.String())
		}
	})
}

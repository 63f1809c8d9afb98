package app

import (
	"fmt"
	"log/slog"

	"telmux/internal/config"
	"telmux/internal/logger"
)

// Version is stamped by the build; the default marks a source build.
var Version = "0.1.000"

var (
	Config *config.Config
	Logger *slog.Logger
)

// Boot loads the configuration and wires up logging. Safe to call again
// for a reload: globals are only swapped once the new config loaded.
func Boot(configPath string, quiet bool) error {
	if configPath == "" {
		configPath = "config.yml"
	}

	newConfig, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	Config = newConfig
	Logger = logger.Setup(Config.Loggers, quiet)

	if !quiet {
		Logger.Info("Successfully loaded configuration", "file", configPath)
	}

	return nil
}

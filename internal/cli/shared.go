package cli

import (
	"fmt"

	"github.com/pacmirror/pac/pkg/config"
	"github.com/pacmirror/pac/pkg/logging"
)

// loadConfig loads configuration from the --config flag's file, or the
// default location when the flag was not given.
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// createLogger builds the run's structured logger from its LoggingConfig,
// honoring -q/-v overrides from the global flags.
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	if globalFlags.Quiet {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatText
	if cfg.Format == "json" {
		format = logging.FormatJSON
	}
	level := logging.ParseLevel(cfg.Level)
	if globalFlags.Verbose {
		level = logging.DebugLevel
	}

	l, err := logging.NewZerologLogger(logging.ZerologLoggerConfig{
		Format: format,
		Level:  level,
		Path:   cfg.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies LogLevel and LogFormat to the standard logrus logger.
func ConfigureLogging(cfg *PluginConfig) error {
	return configureLogger(logrus.StandardLogger(), cfg)
}

func configureLogger(logger *logrus.Logger, cfg *PluginConfig) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	logger.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidSettings, cfg.LogFormat)
	}
	return nil
}

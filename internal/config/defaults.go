package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.WarnAfterDays = DefaultWarnAfterDays
	cfg.DeleteAfterDays = DefaultDeleteAfterDays
	return cfg
}

// applyDefaults применяет значения по умолчанию для строковых полей
func applyDefaults(c *Config) {
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/trash-expiry/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Package config provides configuration loading and validation for trash-expiry.
// The configuration is a small TOML file; every key is optional.
//
// Configuration structure:
//   - warn_after_days: age in days after which an item is reported as expiring soon
//   - delete_after_days: age in days after which an item is permanently deleted
//   - schedule: cron expression used by the daemon mode and the systemd timer
//   - protect: RE2 patterns matched against original paths that must never be deleted
//   - [logging]: logging level, format and output
//   - [metrics]: node_exporter textfile destination
//
// A missing file yields the defaults. Malformed values fall back to their
// default and are reported as ErrInvalid warnings instead of failing the run.
package config

import (
	"errors"
	"time"
)

const (
	// DefaultWarnAfterDays is used when warn_after_days is absent or malformed
	DefaultWarnAfterDays = 50
	// DefaultDeleteAfterDays is used when delete_after_days is absent or malformed
	DefaultDeleteAfterDays = 60
	// DefaultSchedule runs one pass per day
	DefaultSchedule = "@daily"

	// AppName is the directory name under the user config dir
	AppName = "trash-expiry"
	// FileName is the config file name inside AppName
	FileName = "config.toml"
)

// ErrInvalid marks a configuration problem that was recovered by falling back
// to defaults.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the main application configuration.
type Config struct {
	WarnAfterDays   int           `toml:"warn_after_days"`
	DeleteAfterDays int           `toml:"delete_after_days"`
	Schedule        string        `toml:"schedule"`
	Protect         []string      `toml:"protect"`
	Logging         LoggingConfig `toml:"logging"`
	Metrics         MetricsConfig `toml:"metrics"`

	unknownKeys []string
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MetricsConfig представляет конфигурацию экспорта метрик
type MetricsConfig struct {
	// Textfile is a *.prom path for the node_exporter textfile collector.
	// Empty disables the export.
	Textfile string `toml:"textfile"`
}

// fileConfig mirrors Config with loosely typed day counts so that a bad value
// only loses that key, not the whole file.
type fileConfig struct {
	WarnAfterDays   any           `toml:"warn_after_days"`
	DeleteAfterDays any           `toml:"delete_after_days"`
	Schedule        string        `toml:"schedule"`
	Protect         []string      `toml:"protect"`
	Logging         LoggingConfig `toml:"logging"`
	Metrics         MetricsConfig `toml:"metrics"`
}

// WarnAfter returns warn_after_days as a duration.
func (c *Config) WarnAfter() time.Duration {
	return time.Duration(c.WarnAfterDays) * 24 * time.Hour
}

// DeleteAfter returns delete_after_days as a duration.
func (c *Config) DeleteAfter() time.Duration {
	return time.Duration(c.DeleteAfterDays) * 24 * time.Hour
}

// UnknownKeys returns the keys present in the file that were not recognized.
func (c *Config) UnknownKeys() []string {
	return c.unknownKeys
}

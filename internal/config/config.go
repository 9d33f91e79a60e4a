package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"github.com/wasilibs/go-re2"
)

// Load загружает конфигурацию из TOML файла.
// Всегда возвращает пригодную конфигурацию; проблемы возвращаются списком
// предупреждений, каждое из которых оборачивает ErrInvalid.
func Load(path string) (*Config, []error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, []error{fmt.Errorf("%w: failed to read config file %s: %w", ErrInvalid, path, err)}
	}

	var raw fileConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return cfg, []error{fmt.Errorf("%w: failed to parse config file %s: %w", ErrInvalid, path, err)}
	}

	var warnings []error

	if days, err := dayValue("warn_after_days", raw.WarnAfterDays, DefaultWarnAfterDays); err != nil {
		warnings = append(warnings, err)
	} else {
		cfg.WarnAfterDays = days
	}
	if days, err := dayValue("delete_after_days", raw.DeleteAfterDays, DefaultDeleteAfterDays); err != nil {
		warnings = append(warnings, err)
	} else {
		cfg.DeleteAfterDays = days
	}

	cfg.Schedule = strings.TrimSpace(raw.Schedule)
	cfg.Protect = raw.Protect
	cfg.Logging = raw.Logging
	cfg.Metrics = raw.Metrics
	applyDefaults(cfg)

	cfg.Metrics.Textfile = expandHome(cfg.Metrics.Textfile)
	cfg.Logging.Output = expandHome(cfg.Logging.Output)

	for _, key := range md.Undecoded() {
		cfg.unknownKeys = append(cfg.unknownKeys, key.String())
	}

	return cfg, warnings
}

// dayValue converts a raw TOML value into a non-negative day count.
// Absent keys yield def without error.
func dayValue(key string, v any, def int) (int, error) {
	var days int64
	switch val := v.(type) {
	case nil:
		return def, nil
	case int64:
		days = val
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return def, fmt.Errorf("%w: %s = %q is not an integer, using default %d", ErrInvalid, key, val, def)
		}
		days = n
	default:
		return def, fmt.Errorf("%w: %s has unsupported type %T, using default %d", ErrInvalid, key, v, def)
	}

	if days < 0 {
		return def, fmt.Errorf("%w: %s = %d is negative, using default %d", ErrInvalid, key, days, def)
	}
	// Anything beyond this overflows time.Duration.
	if days > 100000 {
		return def, fmt.Errorf("%w: %s = %d is too large, using default %d", ErrInvalid, key, days, def)
	}
	return int(days), nil
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() []error {
	var errs []error

	if c.WarnAfterDays > c.DeleteAfterDays {
		errs = append(errs, fmt.Errorf("warn_after_days (%d) is greater than delete_after_days (%d): items will be deleted without a prior warning",
			c.WarnAfterDays, c.DeleteAfterDays))
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid schedule %q: %w", c.Schedule, err))
	}

	if _, perrs := c.CompileProtect(); len(perrs) > 0 {
		errs = append(errs, perrs...)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}

	return errs
}

// CompileProtect compiles the protect patterns. Invalid patterns are skipped
// and reported as ErrInvalid.
func (c *Config) CompileProtect() ([]*re2.Regexp, []error) {
	var (
		patterns []*re2.Regexp
		errs     []error
	)
	for _, expr := range c.Protect {
		re, err := re2.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: protect pattern %q: %w", ErrInvalid, expr, err))
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns, errs
}

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/trash-expiry/internal/config"
	"github.com/aatumaykin/trash-expiry/internal/expiry"
	"github.com/aatumaykin/trash-expiry/internal/logger"
	"github.com/aatumaykin/trash-expiry/internal/trash"
)

// app holds what every command needs: configuration, logger and the
// identity of the invoking user, all captured once per invocation.
type app struct {
	cfg        *config.Config
	configPath string
	warnings   []error
	log        *logger.Logger
	env        trash.Env
}

// resolveConfigPath returns the --config value or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

func setup(cmd *cobra.Command) (*app, error) {
	path, err := resolveConfigPath()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %v\n", err)
		return nil, &exitError{code: exitFatal, err: err}
	}

	cfg, warnings := config.Load(path)
	if debug {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		warnings = append(warnings, fmt.Errorf("%w: logging: %w", config.ErrInvalid, err))
		log, _ = logger.NewWithWriter(cmd.ErrOrStderr(), "info", "text")
	}
	logger.SetDefault(log)

	log.Debug("configuration loaded",
		logger.Field{Key: "path", Value: path},
		logger.Field{Key: "warn_after_days", Value: cfg.WarnAfterDays},
		logger.Field{Key: "delete_after_days", Value: cfg.DeleteAfterDays})
	for _, key := range cfg.UnknownKeys() {
		log.Debug("ignoring unknown config key", logger.Field{Key: "key", Value: key})
	}
	for _, w := range warnings {
		log.Warn("configuration problem, using defaults", logger.Field{Key: "error", Value: w})
	}

	env, err := trash.CurrentEnv()
	if err != nil {
		log.Error("cannot determine the invoking user", err)
		return nil, &exitError{code: exitFatal, err: err}
	}

	return &app{
		cfg:        cfg,
		configPath: path,
		warnings:   warnings,
		log:        log,
		env:        env,
	}, nil
}

// engine wires the locator, reader and deleter into an expiry engine. An
// invalid protect pattern forces a dry run.
func (a *app) engine(dryRun bool) *expiry.Engine {
	protect, errs := a.cfg.CompileProtect()
	warnings := append(append([]error(nil), a.warnings...), errs...)
	for _, err := range errs {
		a.log.Warn("invalid protect pattern", logger.Field{Key: "error", Value: err})
	}
	if len(errs) > 0 && !dryRun {
		a.log.Warn("protect patterns are unusable, nothing will be deleted")
		dryRun = true
	}

	var metrics *expiry.Metrics
	if a.cfg.Metrics.Textfile != "" {
		metrics = expiry.NewMetrics(a.cfg.Metrics.Textfile)
	}

	return expiry.NewEngine(
		trash.NewLocator(a.env, a.log),
		trash.NewReader(time.Local, a.log),
		trash.NewDeleter(),
		expiry.Options{
			Thresholds: expiry.Thresholds{
				WarnAfter:   a.cfg.WarnAfter(),
				DeleteAfter: a.cfg.DeleteAfter(),
			},
			Protect:  protect,
			DryRun:   dryRun,
			Metrics:  metrics,
			Warnings: warnings,
		},
		a.log,
	)
}

// explicitConfigPath returns the absolute --config path, or "" when the
// default location is used.
func explicitConfigPath() string {
	if configPath == "" {
		return ""
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return configPath
	}
	return abs
}

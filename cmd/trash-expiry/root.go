package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/trash-expiry/internal/logger"
	"github.com/aatumaykin/trash-expiry/internal/timer"
)

var (
	configPath   string
	debug        bool
	dryRun       bool
	installTimer bool
	enableTimer  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trash-expiry",
	Short: "Permanently delete old items from the freedesktop trash",
	Long: `trash-expiry scans the home trash and the per-volume trash directories
of the invoking user, warns about items close to expiry and permanently
deletes items older than delete_after_days.

Without a subcommand one expiry pass is run. The exit status is 0 on success,
1 when the pass recorded errors and 2 when nothing could be processed.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPass,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default $XDG_CONFIG_HOME/trash-expiry/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "report what would be deleted without deleting")

	rootCmd.Flags().BoolVar(&installTimer, "install-timer", false, "write systemd user units running this executable on the configured schedule and exit")
	rootCmd.Flags().BoolVar(&enableTimer, "enable", false, "with --install-timer: reload the user manager and enable the timer")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runPass(cmd *cobra.Command, args []string) error {
	if enableTimer && !installTimer {
		return fmt.Errorf("--enable requires --install-timer")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}

	if installTimer {
		return installTimerUnits(cmd.Context(), a)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := a.engine(dryRun).Run(ctx, time.Now())
	if report.Failed() {
		return &exitError{code: exitFailure}
	}
	return nil
}

func installTimerUnits(ctx context.Context, a *app) error {
	exe, err := os.Executable()
	if err != nil {
		a.log.Error("cannot determine executable path", err)
		return &exitError{code: exitFailure, err: err}
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	sched, err := timer.Translate(a.cfg.Schedule)
	if err != nil {
		a.log.Error("cannot translate schedule", err, logger.Field{Key: "schedule", Value: a.cfg.Schedule})
		return &exitError{code: exitFailure, err: err}
	}

	dir, err := timer.DefaultDir()
	if err != nil {
		a.log.Error("cannot determine systemd user unit directory", err)
		return &exitError{code: exitFailure, err: err}
	}

	changed, err := timer.Install(dir, timer.Render(exe, explicitConfigPath(), sched))
	if err != nil {
		a.log.Error("failed to install systemd units", err)
		return &exitError{code: exitFailure, err: err}
	}
	a.log.Info("systemd units installed",
		logger.Field{Key: "dir", Value: dir},
		logger.Field{Key: "on_calendar", Value: sched.OnCalendar},
		logger.Field{Key: "changed", Value: changed})

	if !enableTimer {
		return nil
	}
	if err := timer.Enable(ctx, timer.Systemctl, a.log); err != nil {
		a.log.Error("failed to enable systemd timer", err)
		return &exitError{code: exitFailure, err: err}
	}
	return nil
}

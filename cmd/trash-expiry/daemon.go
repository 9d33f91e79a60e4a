package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/trash-expiry/internal/expiry"
	"github.com/aatumaykin/trash-expiry/internal/logger"
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run expiry passes on the configured schedule",
	Long: `Run one expiry pass immediately and then one on every tick of the
configured cron schedule, until SIGINT or SIGTERM. Trash directories are
located again for every pass.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := a.engine(dryRun)
	scheduler := expiry.NewScheduler(a.cfg.Schedule, func(ctx context.Context) *expiry.Report {
		return engine.Run(ctx, time.Now())
	}, a.log)

	if err := scheduler.Start(ctx); err != nil {
		a.log.Error("failed to start scheduler", err)
		return &exitError{code: exitFailure, err: err}
	}

	<-ctx.Done()
	a.log.Info("received shutdown signal, waiting for the running pass")
	scheduler.Stop()
	a.log.Info("daemon stopped", logger.Field{Key: "schedule", Value: a.cfg.Schedule})
	return nil
}

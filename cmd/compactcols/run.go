package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/scheduler"
	"github.com/caevv/compactcols/internal/store"
)

// shutdownTimeout bounds how long running builds get to record their result.
const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured jobs in headless mode (no API)",
	Long: `Start the job scheduler in headless mode.

This command loads the configuration file, initializes the scheduler,
and records every run of the configured jobs as a build. It runs
continuously until interrupted by SIGINT or SIGTERM.

Example:
  compactcols run --config ./compactcols.yaml`,
	RunE: runScheduler,
}

// newScheduler schedules every job of cfg, recording builds into st.
func newScheduler(ctx context.Context, cfg *config.Config, st store.Store) (*scheduler.Scheduler, error) {
	sched := scheduler.New(ctx, logger)
	runner := NewRunner(st, logger)
	if _, err := runner.AbortStale(cfg.Jobs); err != nil {
		return nil, fmt.Errorf("failed to abort stale builds: %w", err)
	}
	for i := range cfg.Jobs {
		if err := sched.AddJob(&cfg.Jobs[i], runner); err != nil {
			return nil, fmt.Errorf("failed to add job %s: %w", cfg.Jobs[i].ID, err)
		}
	}
	return sched, nil
}

// stopScheduler waits up to shutdownTimeout for running builds to finish.
func stopScheduler(sched *scheduler.Scheduler) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return sched.Stop(ctx)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := applyLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting compactcols in run mode", "config", configPath)
	logger.Info("configuration loaded successfully",
		"jobs", len(cfg.Jobs),
		"timezone", cfg.Defaults.Timezone,
		"store_driver", cfg.Store.Driver)

	if len(cfg.Jobs) == 0 {
		return fmt.Errorf("no jobs configured in %s", configPath)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := setupSignalHandler()

	sched, err := newScheduler(ctx, cfg, st)
	if err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info("scheduler started successfully",
		"scheduled_jobs", len(cfg.Jobs))

	<-ctx.Done()

	logger.Info("shutting down gracefully...")

	if err := stopScheduler(sched); err != nil {
		logger.Error("error during scheduler shutdown", "error", err)
		return err
	}

	logger.Info("compactcols stopped")
	return nil
}

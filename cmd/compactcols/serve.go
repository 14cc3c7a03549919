package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the JSON API",
	Long: `Start the job scheduler together with the HTTP API.

This command loads the configuration file, starts all configured jobs,
and serves the recorded builds and the rendered status columns as JSON.
Without jobs it only serves builds recorded by other means.

Example:
  compactcols serve --config ./compactcols.yaml --addr :8080`,
	RunE: runServer,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "HTTP server address (host:port), overrides server.addr")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := applyLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	addr := cfg.Server.Addr
	if flagAddr, _ := cmd.Flags().GetString("addr"); flagAddr != "" {
		addr = flagAddr
	}

	logger.Info("starting compactcols in serve mode",
		"config", configPath,
		"addr", addr)
	logger.Info("configuration loaded successfully",
		"jobs", len(cfg.Jobs),
		"columns", len(cfg.Columns),
		"timezone", cfg.Defaults.Timezone,
		"locale", cfg.Defaults.Locale,
		"store_driver", cfg.Store.Driver)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	b, err := board.FromConfig(cfg, st)
	if err != nil {
		return fmt.Errorf("failed to build columns: %w", err)
	}

	ctx := setupSignalHandler()

	sched, err := newScheduler(ctx, cfg, st)
	if err != nil {
		return err
	}

	srv := server.New(addr,
		server.NewStoreAdapter(st),
		server.NewSchedulerAdapter(sched),
		b,
		logger,
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting scheduler...")
		if err := sched.Start(); err != nil {
			return fmt.Errorf("scheduler error: %w", err)
		}
		<-gCtx.Done()
		logger.Info("shutting down gracefully...")
		if err := stopScheduler(sched); err != nil {
			logger.Error("error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	logger.Info("compactcols serve mode started successfully",
		"scheduled_jobs", len(cfg.Jobs),
		"api_url", fmt.Sprintf("http://localhost%s/api", addr))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("error during execution", "error", err)
		return err
	}

	logger.Info("compactcols stopped")
	return nil
}

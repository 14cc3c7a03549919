package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/logging"
	"github.com/caevv/compactcols/internal/store"
)

var (
	// Version information (set via ldflags at build time)
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global logger
	logger *slog.Logger
)

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger = slog.New(logHandler)
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "compactcols",
	Short: "Compact build status columns for CI jobs",
	Long: `compactcols records the builds of CI jobs and shows, per job, a compact
status column with the last failed, unstable and stable builds.

Features:
  - Column presets with per-column overrides
  - Relative and absolute build times in several locales
  - Build history in bbolt or JSON
  - Scheduled jobs whose runs are recorded as builds
  - JSON API and terminal dashboard`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (defaults apply when empty)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})
			logger = slog.New(logHandler)
			slog.SetDefault(logger)
			logger.Debug("debug logging enabled")
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(tuiCmd)
}

// loadConfig reads the file named by --config, or the defaults when the flag
// is empty. Environment overrides apply either way.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg, err := config.Default(os.Environ())
		if err != nil {
			return nil, "", fmt.Errorf("failed to load default config: %w", err)
		}
		return cfg, "(defaults)", nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, path, nil
}

// applyLogging replaces the global logger with the one configured in cfg.
func applyLogging(cmd *cobra.Command, cfg *config.Config) (io.Closer, error) {
	level := cfg.Logging.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	l, closer, err := logging.NewFromConfig(cfg.Logging.Format, level, cfg.Logging.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	slog.SetDefault(l)
	return closer, nil
}

// openStore opens the build history store named in cfg.
func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	logger.Info("store initialized", "driver", cfg.Store.Driver, "path", cfg.Store.Path)
	return st, nil
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
}

// setupSignalHandler creates a context that cancels on SIGINT or SIGTERM
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()

		// Force exit if second signal received
		sig = <-sigChan
		logger.Warn("received second signal, forcing exit", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx
}

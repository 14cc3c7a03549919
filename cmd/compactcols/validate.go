package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/scheduler"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a compactcols configuration file",
	Long: `Validate the syntax and semantics of a compactcols configuration file.

This command loads and validates the configuration file without starting
the scheduler. It checks for:
  - Valid YAML syntax
  - Known column presets and time modes
  - Valid locale and time zone
  - Valid cron expressions and intervals
  - Valid store driver configuration

Example:
  compactcols validate --config ./compactcols.yaml`,
	RunE: validateConfig,
}

func init() {
	validateCmd.Flags().Int("next", 0, "Print the next N run times of every job")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	next, _ := cmd.Flags().GetInt("next")

	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	logger.Info("validating configuration", "path", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Error("configuration file not found", "path", configPath)
		return fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		logger.Error("configuration validation failed", "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	// Resolves column presets, locale and time zone without opening the store.
	if _, err := board.FromConfig(cfg, nil); err != nil {
		logger.Error("configuration validation failed", "error", err)
		return fmt.Errorf("validation failed: %w", err)
	}

	logger.Info("configuration is valid",
		"path", configPath,
		"jobs", len(cfg.Jobs),
		"columns", len(cfg.Columns),
		"timezone", cfg.Defaults.Timezone,
		"locale", cfg.Defaults.Locale,
		"store_driver", cfg.Store.Driver)

	for i, col := range cfg.Columns {
		logger.Debug(fmt.Sprintf("column %d", i+1),
			"name", col.Name,
			"type", col.Type,
			"time_ago", col.TimeAgo,
			"hide_days", col.HideDays)
	}

	fmt.Fprintf(os.Stdout, "\n✓ Configuration is valid: %s\n", configPath)
	fmt.Fprintf(os.Stdout, "  Columns: %d\n", len(cfg.Columns))
	fmt.Fprintf(os.Stdout, "  Jobs: %d\n", len(cfg.Jobs))
	fmt.Fprintf(os.Stdout, "  Store: %s (%s)\n", cfg.Store.Driver, cfg.Store.Path)
	fmt.Fprintf(os.Stdout, "  Timezone: %s\n", cfg.Defaults.Timezone)
	fmt.Fprintf(os.Stdout, "  Locale: %s\n", cfg.Defaults.Locale)

	for _, job := range cfg.Jobs {
		if err := scheduler.ValidateSchedule(job.Schedule); err != nil {
			return fmt.Errorf("job %s: %w", job.ID, err)
		}
		if next <= 0 {
			continue
		}
		runs, err := scheduler.NextRuns(job.Schedule, time.Now(), next)
		if err != nil {
			return fmt.Errorf("job %s: %w", job.ID, err)
		}
		fmt.Fprintf(os.Stdout, "  %s (%s):\n", job.ID, job.Schedule)
		for _, t := range runs {
			fmt.Fprintf(os.Stdout, "    %s\n", t.Format(time.RFC3339))
		}
	}

	return nil
}

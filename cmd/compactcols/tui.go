package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/scheduler"
	"github.com/caevv/compactcols/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show the status columns in a terminal dashboard",
	Long: `Start an interactive terminal dashboard of the status columns.

Configured jobs are scheduled while the dashboard runs unless
--no-schedule is given, in which case only recorded builds are shown.

Navigation:
  ↑/↓ or k/j  - Navigate job list
  enter       - View every column of a job with build tooltips
  esc         - Go back to job list
  g/G         - Jump to top/bottom
  r           - Refresh data
  t           - Trigger the selected job now
  q           - Quit

Example:
  compactcols tui --config ./compactcols.yaml`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().Bool("no-schedule", false, "Only show recorded builds, do not run jobs")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	noSchedule, _ := cmd.Flags().GetBool("no-schedule")

	// Log lines written to the terminal would corrupt the dashboard.
	if cfg.Logging.Output == "stderr" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "discard"
	}
	closer, err := applyLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

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

	var sched *scheduler.Scheduler
	if !noSchedule && len(cfg.Jobs) > 0 {
		sched, err = newScheduler(ctx, cfg, st)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	model := tui.New(cfg, b, sched, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, runErr := p.Run()

	if sched != nil {
		logger.Info("shutting down gracefully...")
		if err := stopScheduler(sched); err != nil {
			logger.Error("error during scheduler shutdown", "error", err)
		}
	}

	if runErr != nil && ctx.Err() == nil {
		logger.Error("TUI error", "error", runErr)
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

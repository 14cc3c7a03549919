package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/scheduler"
	"github.com/caevv/compactcols/internal/store"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Append a build to a job's history",
	Long: `Record a build that ran outside of compactcols.

The build gets the job's next number unless --number is given. A build
recorded with --running has no result until it is recorded again with
the same --number.

Examples:
  compactcols record --job api --result failure --duration 3m
  compactcols record --job api --running
  compactcols record --job api --number 7 --result success --started 2024-05-01T10:00:00Z`,
	RunE: recordBuild,
}

func init() {
	recordCmd.Flags().String("job", "", "Job ID")
	recordCmd.Flags().String("result", "success", "Build result: success, unstable, failure or aborted")
	recordCmd.Flags().Duration("duration", 0, "How long the build took")
	recordCmd.Flags().String("started", "", "Start time in RFC 3339 (default: now minus --duration)")
	recordCmd.Flags().Bool("running", false, "Record the build as still running")
	recordCmd.Flags().Int("number", 0, "Build number (default: next number of the job)")
	recordCmd.MarkFlagRequired("job")
}

func recordBuild(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closer, err := applyLogging(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	jobID, _ := cmd.Flags().GetString("job")
	resultFlag, _ := cmd.Flags().GetString("result")
	duration, _ := cmd.Flags().GetDuration("duration")
	started, _ := cmd.Flags().GetString("started")
	running, _ := cmd.Flags().GetBool("running")
	number, _ := cmd.Flags().GetInt("number")

	if duration < 0 {
		return fmt.Errorf("--duration must not be negative")
	}

	result := history.ResultNone
	if !running {
		result, err = history.ParseResult(resultFlag)
		if err != nil {
			return err
		}
		if result == history.ResultNone {
			return fmt.Errorf("--result %q is not a final result, use --running", resultFlag)
		}
	}

	end := time.Now()
	start := end.Add(-duration)
	if started != "" {
		start, err = time.Parse(time.RFC3339, started)
		if err != nil {
			return fmt.Errorf("invalid --started: %w", err)
		}
		end = start.Add(duration)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	build := scheduler.NewBuild(jobID, start)
	build.Number = number
	if number > 0 {
		if existing := findBuild(st, jobID, number); existing != nil {
			build.ID = existing.ID
		}
	}
	if !running {
		scheduler.Finish(build, result, end)
	}

	if err := st.SaveBuild(build); err != nil {
		return fmt.Errorf("failed to save build: %w", err)
	}

	logger.Info("build recorded",
		"job_id", build.JobID,
		"build", build.Number,
		"build_id", build.ID,
		"result", string(build.Result),
		"building", build.Building)
	fmt.Fprintf(cmd.OutOrStdout(), "%s #%d %s\n", build.JobID, build.Number, describeResult(build))
	return nil
}

// findBuild returns the build of jobID with the given number, if recorded.
func findBuild(st store.Store, jobID string, number int) *history.Build {
	builds, err := st.GetJobBuilds(jobID, 0)
	if err != nil {
		return nil
	}
	for _, b := range builds {
		if b.Number == number {
			return b
		}
	}
	return nil
}

func describeResult(b *history.Build) string {
	if b.Building {
		return "running"
	}
	return string(b.Result)
}

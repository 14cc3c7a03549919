package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/logging"
	"github.com/caevv/compactcols/internal/scheduler"
	"github.com/caevv/compactcols/internal/store"
)

// stderrTailChars bounds the stderr excerpt logged for a failed build.
const stderrTailChars = 2000

// Runner executes job commands and records each run as a build.
type Runner struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a new job runner
func NewRunner(st store.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Run implements scheduler.JobRunner. The build is saved as running before
// the command starts and saved again with its result when it ends. The
// command's own failure is recorded in the build, not returned.
func (r *Runner) Run(ctx context.Context, job *config.Job) (*history.Build, error) {
	build := scheduler.NewBuild(job.ID, r.now())
	if err := r.store.SaveBuild(build); err != nil {
		return nil, fmt.Errorf("save running build: %w", err)
	}

	log := logging.WithBuild(r.logger, build)
	log.Info("build started",
		"schedule", job.Schedule,
		"command", job.Command.String())

	exitCode, stderr, execErr := r.executeCommand(ctx, job)
	result := scheduler.ResultFor(ctx, exitCode, execErr, job.UnstableExitCodes)
	scheduler.Finish(build, result, r.now())

	if err := r.store.SaveBuild(build); err != nil {
		return build, fmt.Errorf("save finished build: %w", err)
	}

	switch result {
	case history.ResultSuccess:
		log.Info("build succeeded", "duration", build.Duration)
	case history.ResultAborted:
		log.Warn("build aborted", "duration", build.Duration, "reason", context.Cause(ctx))
	default:
		attrs := []any{
			"result", string(result),
			"exit_code", exitCode,
			"duration", build.Duration,
		}
		if execErr != nil {
			attrs = append(attrs, "error", execErr.Error())
		}
		if tail := tailOutput(stderr, stderrTailChars); tail != "" {
			attrs = append(attrs, "stderr", tail)
		}
		log.Error("build did not succeed", attrs...)
	}

	return build, nil
}

// AbortStale marks the running builds of jobs as ABORTED. They were left by a
// process that died before recording a result, so their duration is unknown
// and recorded as zero. Builds of other jobs are left alone since they may
// be recorded by an outside system.
func (r *Runner) AbortStale(jobs []config.Job) (int, error) {
	aborted := 0
	for _, job := range jobs {
		builds, err := r.store.GetJobBuilds(job.ID, math.MaxInt)
		if err != nil {
			return aborted, fmt.Errorf("list builds of %s: %w", job.ID, err)
		}
		for _, b := range builds {
			if !b.Building {
				continue
			}
			scheduler.Finish(b, history.ResultAborted, b.StartTime)
			if err := r.store.SaveBuild(b); err != nil {
				return aborted, fmt.Errorf("save stale build: %w", err)
			}
			logging.WithBuild(r.logger, b).Warn("aborted stale running build",
				"started", b.StartTime)
			aborted++
		}
	}
	return aborted, nil
}

// executeCommand runs the job command until it exits or ctx is done.
func (r *Runner) executeCommand(ctx context.Context, job *config.Job) (int, string, error) {
	parts := job.Command.Parts()
	if len(parts) == 0 {
		return -1, "", errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)

	if job.Workdir != "" {
		cmd.Dir = job.Workdir
	}

	cmd.Env = os.Environ()
	for k, v := range job.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return exitCode, stderr.String(), err
}

// tailOutput returns the last maxChars characters of output.
func tailOutput(output string, maxChars int) string {
	output = strings.TrimSpace(output)
	if len(output) <= maxChars {
		return output
	}
	return "..." + output[len(output)-maxChars:]
}

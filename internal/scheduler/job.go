package scheduler

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/history"
)

// JobRunner executes one run of a job and returns the build it recorded.
type JobRunner interface {
	// Run executes the job with the given context.
	// It should respect context cancellation for graceful shutdown.
	Run(ctx context.Context, job *config.Job) (*history.Build, error)
}

// NewBuild starts a build for jobID. The store assigns its number.
func NewBuild(jobID string, start time.Time) *history.Build {
	return &history.Build{
		ID:        GenerateBuildID(),
		JobID:     jobID,
		StartTime: start,
		Building:  true,
	}
}

// Finish records the result of b and marks it complete.
func Finish(b *history.Build, result history.Result, end time.Time) {
	b.Result = result
	b.Duration = end.Sub(b.StartTime)
	if b.Duration < 0 {
		b.Duration = 0
	}
	b.Building = false
}

// ResultFor maps the outcome of a command to a build result. A run cut short
// by its context is ABORTED whatever the exit code.
func ResultFor(ctx context.Context, exitCode int, err error, unstableCodes []int) history.Result {
	switch {
	case ctx.Err() != nil:
		return history.ResultAborted
	case exitCode == 0 && err == nil:
		return history.ResultSuccess
	case exitCode > 0 && slices.Contains(unstableCodes, exitCode):
		return history.ResultUnstable
	}
	return history.ResultFailure
}

// GenerateBuildID generates a unique UUID for a build.
func GenerateBuildID() string {
	return uuid.New().String()
}

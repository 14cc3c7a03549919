package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/caevv/compactcols/internal/scheduler"
	"github.com/caevv/compactcols/internal/store"
)

// StoreAdapter adapts store.Store to server.Store interface
type StoreAdapter struct {
	store store.Store
}

// NewStoreAdapter creates a new store adapter
func NewStoreAdapter(s store.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// ListJobs returns the IDs of jobs with recorded builds.
func (a *StoreAdapter) ListJobs(ctx context.Context) ([]string, error) {
	return a.store.ListJobs()
}

// GetBuilds returns the newest builds of a job.
func (a *StoreAdapter) GetBuilds(ctx context.Context, jobID string, limit int) ([]BuildRecord, error) {
	builds, err := a.store.GetJobBuilds(jobID, limit)
	if err != nil {
		return nil, err
	}

	records := make([]BuildRecord, len(builds))
	for i, b := range builds {
		records[i] = newBuildRecord(b)
	}
	return records, nil
}

// GetBuild returns a build by ID, or nil when it does not exist.
func (a *StoreAdapter) GetBuild(ctx context.Context, id string) (*BuildRecord, error) {
	b, err := a.store.GetBuild(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := newBuildRecord(b)
	return &rec, nil
}

// SchedulerAdapter adapts scheduler.Scheduler to server.Scheduler interface
type SchedulerAdapter struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerAdapter creates a new scheduler adapter
func NewSchedulerAdapter(s *scheduler.Scheduler) *SchedulerAdapter {
	return &SchedulerAdapter{scheduler: s}
}

// GetJobs returns all scheduled jobs with their status
func (a *SchedulerAdapter) GetJobs(ctx context.Context) ([]JobSummary, error) {
	jobs := a.scheduler.ListJobs()
	summaries := make([]JobSummary, 0, len(jobs))
	for _, job := range jobs {
		summary, err := a.GetJob(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// GetJob returns a scheduled job by ID, or nil when it is not scheduled.
func (a *SchedulerAdapter) GetJob(ctx context.Context, jobID string) (*JobSummary, error) {
	job, found := a.scheduler.GetJob(jobID)
	if !found || job == nil {
		return nil, nil
	}

	summary := &JobSummary{
		ID:        job.ID,
		Scheduled: true,
		Schedule:  job.Schedule,
		Command:   job.Command.String(),
	}

	if stats, ok := a.scheduler.GetJobStats(jobID); ok {
		summary.Running = stats.Running
		summary.RunCount = stats.RunCount
		if !stats.LastRun.IsZero() {
			summary.LastRunTime = &stats.LastRun
		}
		if !stats.NextRun.IsZero() {
			summary.NextRunTime = &stats.NextRun
		}
	}

	return summary, nil
}

// Trigger starts a run of the job now.
func (a *SchedulerAdapter) Trigger(ctx context.Context, jobID string) error {
	if _, found := a.scheduler.GetJob(jobID); !found {
		return fmt.Errorf("%w: %s", errJobNotFound, jobID)
	}
	return a.scheduler.Trigger(jobID)
}

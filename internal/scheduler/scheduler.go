// Package scheduler runs configured jobs on their schedules. Every run is
// recorded as a build by the JobRunner.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/history"
)

// Scheduler wraps robfig/cron and manages job lifecycle with context support.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	jobs   map[string]*scheduledJob // jobID -> scheduledJob
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

type scheduledJob struct {
	job       *config.Job
	runner    JobRunner
	entryID   cron.EntryID
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	skipped   int64
	running   bool
	lastBuild *history.Build
}

// New creates a new Scheduler instance with context support.
// The context is used for graceful shutdown and job cancellation.
func New(ctx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	schedCtx, cancel := context.WithCancel(ctx)

	cronLogger := &cronSlogAdapter{logger: logger}

	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
		),
	)

	return &Scheduler{
		cron:   c,
		ctx:    schedCtx,
		cancel: cancel,
		logger: logger,
		jobs:   make(map[string]*scheduledJob),
	}
}

// AddJob adds a job to the scheduler with the given runner.
// Returns an error if the job ID already exists or if the schedule is invalid.
func (s *Scheduler) AddJob(job *config.Job, runner JobRunner) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if runner == nil {
		return fmt.Errorf("runner cannot be nil")
	}
	if job.ID == "" {
		return fmt.Errorf("job ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %q already exists", job.ID)
	}

	schedule, err := ParseSchedule(job.Schedule)
	if err != nil {
		return fmt.Errorf("failed to parse schedule for job %q: %w", job.ID, err)
	}

	entryID := s.cron.Schedule(schedule, cron.FuncJob(func() { s.runJob(job.ID) }))
	next := schedule.Next(time.Now())

	s.jobs[job.ID] = &scheduledJob{
		job:     job,
		runner:  runner,
		entryID: entryID,
		nextRun: next,
	}

	s.logger.Info("job added to scheduler",
		slog.String("job_id", job.ID),
		slog.String("schedule", job.Schedule),
		slog.Time("next_run", next),
	)

	return nil
}

// Trigger runs a job immediately, outside its schedule. It returns once the
// run has been started.
func (s *Scheduler) Trigger(jobID string) error {
	s.mu.RLock()
	_, exists := s.jobs[jobID]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %q not found", jobID)
	}
	go s.runJob(jobID)
	return nil
}

// runJob executes one run of a job. A run is skipped while the previous run
// of the same job has not finished.
func (s *Scheduler) runJob(jobID string) {
	s.mu.Lock()
	sj, exists := s.jobs[jobID]
	if !exists || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if sj.running {
		sj.skipped++
		s.mu.Unlock()
		s.logger.Warn("previous build still running, skipping",
			slog.String("job_id", jobID),
		)
		return
	}
	sj.running = true
	sj.lastRun = time.Now()
	sj.runCount++
	job, runner := sj.job, sj.runner
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()

	jobCtx := s.ctx
	if job.TimeoutSec > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(s.ctx, time.Duration(job.TimeoutSec)*time.Second)
		defer cancel()
	}

	s.logger.Info("starting job execution",
		slog.String("job_id", job.ID),
		slog.String("command", job.Command.String()),
	)

	startTime := time.Now()
	build, err := runner.Run(jobCtx, job)
	duration := time.Since(startTime)

	switch {
	case err != nil:
		s.logger.Error("job execution failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
	case build != nil:
		s.logger.Info("job execution completed",
			slog.String("job_id", job.ID),
			slog.Int("build", build.Number),
			slog.String("result", string(build.Result)),
			slog.Duration("duration", duration),
		)
	}

	s.mu.Lock()
	sj.running = false
	if build != nil {
		sj.lastBuild = build
	}
	if entry := s.cron.Entry(sj.entryID); entry.ID != 0 {
		sj.nextRun = entry.Next
	}
	s.mu.Unlock()
}

// Start begins the scheduler. Jobs will start running according to their schedules.
func (s *Scheduler) Start() error {
	s.mu.RLock()
	jobCount := len(s.jobs)
	s.mu.RUnlock()

	if jobCount == 0 {
		s.logger.Warn("starting scheduler with no jobs")
	}

	s.logger.Info("starting scheduler", slog.Int("job_count", jobCount))
	s.cron.Start()

	return nil
}

// Stop cancels running jobs, stops scheduling new ones and waits for the
// running ones to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")

	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	<-s.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("all jobs stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("shutdown timeout reached, some jobs may still be running")
		return ctx.Err()
	}
}

// GetJob returns the scheduled job info for a given job ID.
func (s *Scheduler) GetJob(jobID string) (*config.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sj, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	return sj.job, true
}

// ListJobs returns a list of all scheduled jobs.
func (s *Scheduler) ListJobs() []*config.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*config.Job, 0, len(s.jobs))
	for _, sj := range s.jobs {
		jobs = append(jobs, sj.job)
	}
	return jobs
}

// JobStats returns statistics for a scheduled job.
type JobStats struct {
	JobID     string         `json:"job_id"`
	LastRun   time.Time      `json:"last_run"`
	NextRun   time.Time      `json:"next_run"`
	RunCount  int64          `json:"run_count"`
	Skipped   int64          `json:"skipped"`
	Running   bool           `json:"running"`
	LastBuild *history.Build `json:"last_build,omitempty"`
}

// GetJobStats returns statistics for a given job ID.
func (s *Scheduler) GetJobStats(jobID string) (*JobStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sj, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}

	nextRun := sj.nextRun
	if entry := s.cron.Entry(sj.entryID); entry.ID != 0 {
		nextRun = entry.Next
	}

	stats := &JobStats{
		JobID:    jobID,
		LastRun:  sj.lastRun,
		NextRun:  nextRun,
		RunCount: sj.runCount,
		Skipped:  sj.skipped,
		Running:  sj.running,
	}
	if sj.lastBuild != nil {
		b := *sj.lastBuild
		stats.LastBuild = &b
	}
	return stats, true
}

// cronSlogAdapter adapts slog.Logger to cron.Logger interface.
type cronSlogAdapter struct {
	logger *slog.Logger
}

func (a *cronSlogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a *cronSlogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	attrs := make([]any, 0, len(keysAndValues)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	attrs = append(attrs, keysAndValues...)
	a.logger.Error(msg, attrs...)
}

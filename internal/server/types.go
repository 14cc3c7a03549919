package server

import (
	"time"

	"github.com/caevv/compactcols/internal/history"
)

// JobSummary represents a job known to the scheduler, the store or both.
type JobSummary struct {
	ID          string       `json:"id"`
	Scheduled   bool         `json:"scheduled"`
	Schedule    string       `json:"schedule,omitempty"`
	Command     string       `json:"command,omitempty"`
	Running     bool         `json:"running"`
	RunCount    int64        `json:"run_count"`
	LastRunTime *time.Time   `json:"last_run_time,omitempty"`
	NextRunTime *time.Time   `json:"next_run_time,omitempty"`
	LastBuild   *BuildRecord `json:"last_build,omitempty"`
}

// BuildRecord represents a single build of a job.
type BuildRecord struct {
	ID         string         `json:"id"`
	JobID      string         `json:"job_id"`
	Number     int            `json:"number"`
	Result     history.Result `json:"result,omitempty"`
	Building   bool           `json:"building"`
	StartTime  time.Time      `json:"start_time"`
	DurationMs int64          `json:"duration_ms"`
}

func newBuildRecord(b *history.Build) BuildRecord {
	return BuildRecord{
		ID:         b.ID,
		JobID:      b.JobID,
		Number:     b.Number,
		Result:     b.Result,
		Building:   b.Building,
		StartTime:  b.StartTime,
		DurationMs: b.Duration.Milliseconds(),
	}
}

// ColumnSummary describes a configured column.
type ColumnSummary struct {
	Name               string `json:"name"`
	FailedOnlyIfLast   bool   `json:"failed_only_if_last"`
	UnstableOnlyIfLast bool   `json:"unstable_only_if_last"`
	OnlyShowLastStatus bool   `json:"only_show_last_status"`
	ColorblindHint     bool   `json:"colorblind_hint"`
	HideDays           int    `json:"hide_days"`
	TimeAgo            string `json:"time_ago"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// Package store persists job build history.
package store

import (
	"errors"
	"fmt"

	"github.com/caevv/compactcols/internal/history"
)

// DefaultLimit is the number of builds returned when no limit is given.
const DefaultLimit = 100

// ErrNotFound is returned when a build does not exist.
var ErrNotFound = errors.New("build not found")

// Store defines the interface for persisting and retrieving build history.
// Implementations are safe for concurrent use.
type Store interface {
	// SaveBuild inserts or replaces a build. A zero Number is replaced with
	// the job's next build number before the build is written.
	SaveBuild(b *history.Build) error

	// GetBuild retrieves a build by its ID.
	GetBuild(id string) (*history.Build, error)

	// GetJobBuilds retrieves the most recent builds of a job.
	// Returns up to 'limit' builds, ordered by Number descending (newest first).
	GetJobBuilds(jobID string, limit int) ([]*history.Build, error)

	// GetJobLandmarks retrieves the builds a status column looks up no matter
	// how old they are: the newest build, the newest completed build, the
	// newest build of each result and the newest aborted build. Ordered by
	// Number descending, without duplicates.
	GetJobLandmarks(jobID string) ([]*history.Build, error)

	// ListJobs returns the IDs of all jobs that have at least one build.
	ListJobs() ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// LoadHistory reads the newest builds of a job into an immutable snapshot.
// The landmark builds are merged in even when they fall outside the limit,
// so the last stable, unstable, failed and aborted lookups never miss.
func LoadHistory(s Store, jobID string, limit int) (*history.Snapshot, error) {
	builds, err := s.GetJobBuilds(jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", jobID, err)
	}
	marks, err := s.GetJobLandmarks(jobID)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", jobID, err)
	}
	return history.NewSnapshot(mergeBuilds(builds, marks)), nil
}

// mergeBuilds appends the builds of extra whose number is not in builds.
func mergeBuilds(builds, extra []*history.Build) []*history.Build {
	seen := make(map[int]bool, len(builds))
	for _, b := range builds {
		seen[b.Number] = true
	}
	for _, b := range extra {
		if !seen[b.Number] {
			seen[b.Number] = true
			builds = append(builds, b)
		}
	}
	return builds
}

// landmarks collects landmark builds from a newest-first walk.
type landmarks struct {
	builds    []*history.Build
	last      bool
	completed bool
	aborted   bool
	results   map[history.Result]bool
}

func newLandmarks() *landmarks {
	return &landmarks{results: make(map[history.Result]bool, 4)}
}

// offer records b if it is a landmark no newer build has claimed. It
// reports whether every landmark has been found.
func (l *landmarks) offer(b *history.Build) bool {
	keep := !l.last
	l.last = true

	if !b.Building && b.Result.Completed() {
		if !l.completed {
			l.completed, keep = true, true
		}
		if !l.results[b.Result] {
			l.results[b.Result], keep = true, true
		}
	}
	// Aborted builds count even while still flagged as building.
	if b.Result == history.ResultAborted && !l.aborted {
		l.aborted, keep = true, true
	}

	if keep {
		l.builds = append(l.builds, b)
	}
	return l.done()
}

func (l *landmarks) done() bool {
	return l.last && l.completed && l.aborted && len(l.results) == 4
}

func validateBuild(b *history.Build) error {
	if b == nil {
		return fmt.Errorf("build is nil")
	}
	if b.ID == "" {
		return fmt.Errorf("build id is required")
	}
	if b.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	if b.Number < 0 {
		return fmt.Errorf("build number must be >= 0, got %d", b.Number)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Package history models a job's build history as a read-only, newest-first
// sequence that the status column scans.
package history

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Result is the completion result of a build. The zero value means the build
// is still in progress or its result is unknown.
type Result string

const (
	ResultNone     Result = ""
	ResultSuccess  Result = "SUCCESS"
	ResultUnstable Result = "UNSTABLE"
	ResultFailure  Result = "FAILURE"
	ResultAborted  Result = "ABORTED"
)

// Completed reports whether r is a terminal result.
func (r Result) Completed() bool {
	switch r {
	case ResultSuccess, ResultUnstable, ResultFailure, ResultAborted:
		return true
	}
	return false
}

// ParseResult accepts the canonical names case-insensitively, plus a few
// common aliases ("stable", "failed", "cancelled").
func ParseResult(s string) (Result, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SUCCESS", "STABLE":
		return ResultSuccess, nil
	case "UNSTABLE":
		return ResultUnstable, nil
	case "FAILURE", "FAILED":
		return ResultFailure, nil
	case "ABORTED", "CANCELLED", "CANCELED":
		return ResultAborted, nil
	case "", "RUNNING", "IN_PROGRESS":
		return ResultNone, nil
	}
	return ResultNone, fmt.Errorf("unknown build result: %q", s)
}

// Build is one execution of a job.
type Build struct {
	// ID is a unique identifier for this build (typically UUID).
	ID string `json:"id"`

	// JobID identifies which job this build belongs to.
	JobID string `json:"job_id"`

	// Number is unique per job and increases with recency.
	Number int `json:"number"`

	// Result is empty while the build is running.
	Result Result `json:"result,omitempty"`

	// StartTime is when the build began.
	StartTime time.Time `json:"start_time"`

	// Duration is zero while the build is running.
	Duration time.Duration `json:"duration"`

	// Building is true until the build finishes.
	Building bool `json:"building"`
}

// History is the read-only view of one job's builds. Every lookup returns nil
// when nothing matches.
type History interface {
	// Last returns the most recent build, finished or not.
	Last() *Build

	// LastCompleted returns the most recent build that has a terminal result.
	LastCompleted() *Build

	// LastFailed returns the most recent build with result FAILURE.
	LastFailed() *Build

	// LastUnstable returns the most recent build with result UNSTABLE.
	LastUnstable() *Build

	// LastStable returns the most recent build with result SUCCESS.
	LastStable() *Build

	// Previous returns the build that ran just before b.
	Previous(b *Build) *Build
}

// Snapshot is an immutable History built from a fixed set of builds.
// It is safe for concurrent use.
type Snapshot struct {
	builds   []*Build       // newest first
	position map[*Build]int // index into builds
	last     map[Result]*Build
	complete *Build
}

var _ History = (*Snapshot)(nil)

// NewSnapshot sorts a copy of builds newest first and indexes it. Nil
// entries are dropped.
func NewSnapshot(builds []*Build) *Snapshot {
	sorted := make([]*Build, 0, len(builds))
	for _, b := range builds {
		if b != nil {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number > sorted[j].Number
	})

	s := &Snapshot{
		builds:   sorted,
		position: make(map[*Build]int, len(sorted)),
		last:     make(map[Result]*Build, 4),
	}
	for i, b := range sorted {
		s.position[b] = i
		if b.Building || !b.Result.Completed() {
			continue
		}
		if s.complete == nil {
			s.complete = b
		}
		if _, ok := s.last[b.Result]; !ok {
			s.last[b.Result] = b
		}
	}
	return s
}

// Len returns the number of builds in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.builds)
}

// Builds returns the builds newest first. The slice must not be modified.
func (s *Snapshot) Builds() []*Build {
	return s.builds
}

func (s *Snapshot) Last() *Build {
	if len(s.builds) == 0 {
		return nil
	}
	return s.builds[0]
}

func (s *Snapshot) LastCompleted() *Build { return s.complete }
func (s *Snapshot) LastFailed() *Build    { return s.last[ResultFailure] }
func (s *Snapshot) LastUnstable() *Build  { return s.last[ResultUnstable] }
func (s *Snapshot) LastStable() *Build    { return s.last[ResultSuccess] }

func (s *Snapshot) Previous(b *Build) *Build {
	i, ok := s.position[b]
	if !ok || i+1 >= len(s.builds) {
		return nil
	}
	return s.builds[i+1]
}

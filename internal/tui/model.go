package tui

import (
	"log/slog"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/scheduler"
)

// ViewMode represents the current view in the TUI.
type ViewMode int

const (
	ViewModeList ViewMode = iota
	ViewModeDetail
)

// Model holds the state for the TUI.
type Model struct {
	config    *config.Config
	board     *board.Board
	scheduler *scheduler.Scheduler // nil when only showing recorded builds
	logger    *slog.Logger
	now       func() time.Time

	viewMode     ViewMode
	jobs         []JobState
	selectedJob  int
	width        int
	height       int
	lastUpdate   time.Time
	quitting     bool
	errorMessage string
	notice       string
}

// JobState is one job row: its schedule state and its rendered columns.
type JobState struct {
	ID        string
	Schedule  string
	Scheduled bool
	Running   bool
	NextRun   time.Time
	Views     []*board.View
}

// New creates a new TUI model. sched may be nil.
func New(cfg *config.Config, b *board.Board, sched *scheduler.Scheduler, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{
		config:    cfg,
		board:     b,
		scheduler: sched,
		logger:    logger,
		now:       time.Now,
	}
	m.refreshData()
	return m
}

// Init initializes the model (required by Bubbletea).
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickMsg is sent on a regular interval to refresh the UI.
type tickMsg time.Time

// tickCmd returns a command that sends a tick message every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// jobIDs returns configured jobs first, then jobs that only have recorded
// builds, sorted.
func (m *Model) jobIDs() ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, job := range m.config.Jobs {
		ids = append(ids, job.ID)
		seen[job.ID] = true
	}

	recorded, err := m.board.Jobs()
	if err != nil {
		return nil, err
	}
	var extra []string
	for _, id := range recorded {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	return append(ids, extra...), nil
}

// refreshData renders every job's columns from the store.
func (m *Model) refreshData() {
	now := m.now()

	ids, err := m.jobIDs()
	if err != nil {
		m.errorMessage = err.Error()
		m.logger.Error("failed to list jobs", "error", err)
		return
	}

	jobs := make([]JobState, 0, len(ids))
	for _, id := range ids {
		state := JobState{ID: id}
		if job, ok := m.config.Job(id); ok {
			state.Schedule = job.Schedule
		}
		if m.scheduler != nil {
			if stats, ok := m.scheduler.GetJobStats(id); ok {
				state.Scheduled = true
				state.Running = stats.Running
				state.NextRun = stats.NextRun
			}
		}

		views, err := m.board.Row(id, nil, now)
		if err != nil {
			m.errorMessage = err.Error()
			m.logger.Error("failed to render columns", "job_id", id, "error", err)
			return
		}
		state.Views = views
		jobs = append(jobs, state)
	}

	m.jobs = jobs
	if m.selectedJob >= len(m.jobs) {
		m.selectedJob = max(len(m.jobs)-1, 0)
	}
	m.errorMessage = ""
	m.lastUpdate = now
}

// Quitting returns true if the user has requested to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/timefmt"
)

const (
	version      = "v0.1.0"
	defaultLimit = 100
	maxLimit     = 1000
)

// handleHealth returns the health status of the server
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version,
		Uptime:  s.Uptime(),
	})
}

// handleListColumns returns the configured columns
func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	columns := s.board.Columns()
	out := make([]ColumnSummary, 0, len(columns))
	for _, c := range columns {
		out = append(out, ColumnSummary{
			Name:               c.Name,
			FailedOnlyIfLast:   c.Policy.FailedOnlyIfLast,
			UnstableOnlyIfLast: c.Policy.UnstableOnlyIfLast,
			OnlyShowLastStatus: c.Policy.OnlyShowLastStatus,
			ColorblindHint:     c.Policy.ShowColorblindHint,
			HideDays:           c.Policy.HideBuildsOlderThanDays,
			TimeAgo:            c.Policy.TimeMode.String(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleListJobs returns scheduled jobs and jobs with recorded builds
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byID := make(map[string]*JobSummary)
	if s.scheduler != nil {
		scheduled, err := s.scheduler.GetJobs(ctx)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to retrieve jobs", err)
			return
		}
		for i := range scheduled {
			byID[scheduled[i].ID] = &scheduled[i]
		}
	}

	recorded, err := s.store.ListJobs(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve jobs", err)
		return
	}
	for _, id := range recorded {
		if _, ok := byID[id]; !ok {
			byID[id] = &JobSummary{ID: id}
		}
	}

	jobs := make([]JobSummary, 0, len(byID))
	for _, job := range byID {
		if err := s.attachLastBuild(r, job); err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to retrieve builds", err)
			return
		}
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })

	s.writeJSON(w, http.StatusOK, jobs)
}

// handleGetJob returns a specific job by ID
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// lookupJob finds the job named in the path, writing a 404 when neither the
// scheduler nor the store knows it.
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*JobSummary, bool) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")

	var job *JobSummary
	if s.scheduler != nil {
		var err error
		job, err = s.scheduler.GetJob(ctx, jobID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to retrieve job", err)
			return nil, false
		}
	}
	if job == nil {
		job = &JobSummary{ID: jobID}
	}

	if err := s.attachLastBuild(r, job); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve builds", err)
		return nil, false
	}
	if !job.Scheduled && job.LastBuild == nil {
		s.writeError(w, http.StatusNotFound, "job not found", nil)
		return nil, false
	}
	return job, true
}

func (s *Server) attachLastBuild(r *http.Request, job *JobSummary) error {
	builds, err := s.store.GetBuilds(r.Context(), job.ID, 1)
	if err != nil {
		return err
	}
	if len(builds) > 0 {
		job.LastBuild = &builds[0]
	}
	return nil
}

// handleGetJobBuilds returns build history for a specific job
func (s *Server) handleGetJobBuilds(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	builds, err := s.store.GetBuilds(r.Context(), jobID, parseLimitParam(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve builds", err)
		return
	}

	s.writeJSON(w, http.StatusOK, builds)
}

// handleGetBuild returns a specific build by ID
func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	build, err := s.store.GetBuild(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve build", err)
		return
	}
	if build == nil {
		s.writeError(w, http.StatusNotFound, "build not found", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, build)
}

// handleGetJobColumns renders every configured column for a job
func (s *Server) handleGetJobColumns(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	l, err := requestLocale(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	views, err := s.board.Row(jobID, l, s.now())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to render columns", err)
		return
	}

	s.writeJSON(w, http.StatusOK, views)
}

// handleGetJobColumn renders one column for a job
func (s *Server) handleGetJobColumn(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	name := chi.URLParam(r, "column")

	l, err := requestLocale(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	view, err := s.board.Render(jobID, name, l, s.now())
	if errors.Is(err, board.ErrUnknownColumn) {
		s.writeError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to render column", err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

// handleTriggerJob starts a run of a scheduled job
func (s *Server) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	if s.scheduler == nil {
		s.writeError(w, http.StatusServiceUnavailable, "scheduler not available", nil)
		return
	}

	if err := s.scheduler.Trigger(r.Context(), jobID); err != nil {
		if errors.Is(err, errJobNotFound) {
			s.writeError(w, http.StatusNotFound, "job not scheduled", nil)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to trigger job", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "triggered"})
}

// requestLocale picks the locale from ?locale=, then Accept-Language. A nil
// locale means the column default. Only an explicit ?locale= can fail.
func requestLocale(r *http.Request) (*timefmt.Locale, error) {
	if q := r.URL.Query().Get("locale"); q != "" {
		return timefmt.ParseLocale(q)
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return nil, nil
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return nil, nil
	}
	l, err := timefmt.MatchLocale(tags...)
	if err != nil {
		return nil, nil
	}
	return l, nil
}

// parseLimitParam parses the limit query parameter
func parseLimitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		s.logger.Error("API error", "status", status, "message", message, "error", err)
	}

	s.writeJSON(w, status, response)
}

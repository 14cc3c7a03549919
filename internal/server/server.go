// Package server exposes recorded builds and rendered status columns as a
// JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caevv/compactcols/internal/board"
)

var errJobNotFound = errors.New("job not found")

// Store defines the interface for accessing recorded builds
type Store interface {
	// ListJobs returns the IDs of jobs with at least one build.
	ListJobs(ctx context.Context) ([]string, error)

	// GetBuilds returns the newest builds of a job, newest first.
	GetBuilds(ctx context.Context, jobID string, limit int) ([]BuildRecord, error)

	// GetBuild returns a build by ID, nil when it does not exist.
	GetBuild(ctx context.Context, id string) (*BuildRecord, error)
}

// Scheduler defines the interface for accessing scheduler state
type Scheduler interface {
	// GetJobs returns all scheduled jobs with their status
	GetJobs(ctx context.Context) ([]JobSummary, error)

	// GetJob returns a scheduled job, nil when it is not scheduled.
	GetJob(ctx context.Context, jobID string) (*JobSummary, error)

	// Trigger starts a run of the job now.
	Trigger(ctx context.Context, jobID string) error
}

// Server represents the HTTP server for the column API
type Server struct {
	addr      string
	store     Store
	scheduler Scheduler
	board     *board.Board
	logger    *slog.Logger
	now       func() time.Time

	srv       *http.Server
	router    chi.Router
	startTime time.Time

	mu      sync.RWMutex
	started bool
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now, which decides how long ago builds ran.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server instance. The scheduler may be nil when builds are
// only recorded from outside.
func New(addr string, store Store, scheduler Scheduler, b *board.Board, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      addr,
		store:     store,
		scheduler: scheduler,
		board:     b,
		logger:    logger,
		now:       time.Now,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/columns", s.handleListColumns)

		r.Get("/jobs", s.handleListJobs)
		r.Route("/jobs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetJob)
			r.Get("/builds", s.handleGetJobBuilds)
			r.Get("/columns", s.handleGetJobColumns)
			r.Get("/columns/{column}", s.handleGetJobColumn)
			r.Post("/trigger", s.handleTriggerJob)
		})

		r.Get("/builds/{id}", s.handleGetBuild)
	})

	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "addr", s.addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", "reason", ctx.Err())
		return s.Stop(context.Background())
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.srv == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during shutdown", "error", err)
		return fmt.Errorf("shutdown failed: %w", err)
	}

	s.started = false
	s.logger.Info("HTTP server stopped")
	return nil
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Uptime returns the server uptime as a string
func (s *Server) Uptime() string {
	return time.Since(s.startTime).Truncate(time.Second).String()
}

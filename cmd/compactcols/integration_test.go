package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/caevv/compactcols/internal/board"
	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/store"
)

func init() {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T, driver string) store.Store {
	t.Helper()
	name := "test.json"
	if driver == "bbolt" {
		name = "test.db"
	}
	st, err := store.NewStore(driver, filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRunner_Results(t *testing.T) {
	tests := []struct {
		name     string
		command  config.Command
		unstable []int
		want     history.Result
	}{
		{name: "exit zero", command: config.NewShellCommand("true"), want: history.ResultSuccess},
		{name: "unstable code", command: config.NewShellCommand("exit 3"), unstable: []int{3}, want: history.ResultUnstable},
		{name: "other code", command: config.NewShellCommand("exit 3"), unstable: []int{2}, want: history.ResultFailure},
		{name: "missing binary", command: config.NewArgvCommand("/nonexistent/compactcols-test"), want: history.ResultFailure},
		{name: "argv command", command: config.NewArgvCommand("/bin/sh", "-c", "echo ok"), want: history.ResultSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t, "json")
			runner := NewRunner(st, testLogger())

			job := &config.Job{ID: "job", Command: tt.command, UnstableExitCodes: tt.unstable}
			build, err := runner.Run(context.Background(), job)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if build.Result != tt.want {
				t.Errorf("Result = %v, want %v", build.Result, tt.want)
			}
			if build.Building {
				t.Error("Building should be false after the run")
			}
			if build.Number != 1 {
				t.Errorf("Number = %d, want 1", build.Number)
			}

			saved, err := st.GetBuild(build.ID)
			if err != nil {
				t.Fatalf("GetBuild() error = %v", err)
			}
			if diff := cmp.Diff(build.Result, saved.Result); diff != "" {
				t.Errorf("saved result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunner_NumbersIncrease(t *testing.T) {
	st := newTestStore(t, "bbolt")
	runner := NewRunner(st, testLogger())
	job := &config.Job{ID: "job", Command: config.NewShellCommand("true")}

	var got []int
	for i := 0; i < 3; i++ {
		build, err := runner.Run(context.Background(), job)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		got = append(got, build.Number)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("build numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestRunner_CancelledRunIsAborted(t *testing.T) {
	st := newTestStore(t, "json")
	runner := NewRunner(st, testLogger())
	job := &config.Job{ID: "job", Command: config.NewShellCommand("sleep 5")}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	build, err := runner.Run(ctx, job)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if build.Result != history.ResultAborted {
		t.Errorf("Result = %v, want %v", build.Result, history.ResultAborted)
	}
}

// savesRecorder keeps a copy of every build passed to SaveBuild.
type savesRecorder struct {
	store.Store
	mu    sync.Mutex
	saves []history.Build
}

func (s *savesRecorder) SaveBuild(b *history.Build) error {
	if err := s.Store.SaveBuild(b); err != nil {
		return err
	}
	s.mu.Lock()
	s.saves = append(s.saves, *b)
	s.mu.Unlock()
	return nil
}

func TestRunner_SavesRunningBuildFirst(t *testing.T) {
	rec := &savesRecorder{Store: newTestStore(t, "json")}
	runner := NewRunner(rec, testLogger())

	start := time.Date(2010, 6, 24, 13, 0, 0, 0, time.UTC)
	clock := []time.Time{start, start.Add(90 * time.Second)}
	runner.now = func() time.Time {
		next := clock[0]
		clock = clock[1:]
		return next
	}

	job := &config.Job{ID: "job", Command: config.NewShellCommand("true")}
	if _, err := runner.Run(context.Background(), job); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(rec.saves) != 2 {
		t.Fatalf("got %d saves, want 2", len(rec.saves))
	}
	first, last := rec.saves[0], rec.saves[1]
	if !first.Building || first.Result != history.ResultNone {
		t.Errorf("first save: Building = %v, Result = %q, want running with no result", first.Building, first.Result)
	}
	if last.Building || last.Result != history.ResultSuccess || last.Duration != 90*time.Second {
		t.Errorf("last save: Building = %v, Result = %q, Duration = %v", last.Building, last.Result, last.Duration)
	}
	if first.ID != last.ID || first.Number != last.Number {
		t.Errorf("saves describe different builds: %s #%d vs %s #%d", first.ID, first.Number, last.ID, last.Number)
	}
}

func TestNewScheduler_AbortsStaleRunningBuilds(t *testing.T) {
	start := time.Date(2010, 6, 24, 13, 0, 0, 0, time.UTC)

	type state struct {
		Building bool
		Result   history.Result
		Duration time.Duration
	}
	tests := []struct {
		name  string
		build *history.Build
		want  state
	}{
		{
			name:  "running build of a scheduled job",
			build: &history.Build{ID: "api-2", JobID: "api", Number: 2, StartTime: start, Building: true},
			want:  state{Result: history.ResultAborted},
		},
		{
			name:  "finished build is kept",
			build: &history.Build{ID: "api-1", JobID: "api", Number: 1, StartTime: start, Result: history.ResultSuccess, Duration: time.Minute},
			want:  state{Result: history.ResultSuccess, Duration: time.Minute},
		},
		{
			name:  "running build of an unscheduled job",
			build: &history.Build{ID: "external-1", JobID: "external", Number: 1, StartTime: start, Building: true},
			want:  state{Building: true},
		},
	}

	for _, driver := range []string{"bbolt", "json"} {
		t.Run(driver, func(t *testing.T) {
			st := newTestStore(t, driver)
			for _, tt := range tests {
				if err := st.SaveBuild(tt.build); err != nil {
					t.Fatalf("SaveBuild(%s) error = %v", tt.build.ID, err)
				}
			}

			cfg, err := config.Parse([]byte(`
jobs:
  - id: api
    schedule: "@every 1h"
    command: "true"
`), nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			logger = testLogger()
			if _, err := newScheduler(context.Background(), cfg, st); err != nil {
				t.Fatalf("newScheduler() error = %v", err)
			}

			for _, tt := range tests {
				got, err := st.GetBuild(tt.build.ID)
				if err != nil {
					t.Fatalf("GetBuild(%s) error = %v", tt.build.ID, err)
				}
				if diff := cmp.Diff(tt.want, state{got.Building, got.Result, got.Duration}); diff != "" {
					t.Errorf("%s: mismatch (-want +got):\n%s", tt.name, diff)
				}
			}
		})
	}
}

func TestIntegration_ScheduledBuildsRenderColumn(t *testing.T) {
	st := newTestStore(t, "bbolt")

	cfg, err := config.Parse([]byte(`
defaults:
  timezone: UTC
columns:
  - name: all
    type: all-statuses
jobs:
  - id: flaky
    schedule: "@every 1h"
    command: "exit 2"
    unstable_exit_codes: [2]
  - id: ok
    schedule: "@every 1h"
    command: ["/bin/sh", "-c", "true"]
`), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger = testLogger()
	sched, err := newScheduler(ctx, cfg, st)
	if err != nil {
		t.Fatalf("newScheduler() error = %v", err)
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, id := range []string{"flaky", "ok"} {
		if err := sched.Trigger(id); err != nil {
			t.Fatalf("Trigger(%s) error = %v", id, err)
		}
	}
	waitFor(t, func() bool {
		for _, id := range []string{"flaky", "ok"} {
			stats, ok := sched.GetJobStats(id)
			if !ok || stats.LastBuild == nil {
				return false
			}
		}
		return true
	})

	if err := stopScheduler(sched); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	b, err := board.FromConfig(cfg, st)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}

	tests := []struct {
		job      string
		category string
		status   string
		url      string
	}{
		{job: "flaky", category: "unstable", status: "Unstable", url: "1/"},
		{job: "ok", category: "stable", status: "Stable", url: "lastStableBuild/"},
	}
	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			view, err := b.Render(tt.job, "all", nil, time.Now())
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if len(view.Cells) != 1 {
				t.Fatalf("got %d cells, want 1", len(view.Cells))
			}
			cell := view.Cells[0]
			if cell.Category != tt.category || cell.Status != tt.status {
				t.Errorf("cell = %s/%s, want %s/%s", cell.Category, cell.Status, tt.category, tt.status)
			}
			if cell.Number != 1 || cell.URL != tt.url {
				t.Errorf("cell #%d url %q, want #1 url %q", cell.Number, cell.URL, tt.url)
			}
		})
	}
}

func TestPrintViews(t *testing.T) {
	views := []*board.View{
		{JobID: "api", Column: "status", Empty: true},
		{JobID: "web", Column: "status"},
	}
	var buf bytes.Buffer
	if err := printViews(&buf, views); err != nil {
		t.Fatalf("printViews() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"JOB  COLUMN  BUILDS",
		"api  status  -",
		"web  status",
	}
	if diff := cmp.Diff(want, trimLines(lines)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func trimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight(l, " ")
	}
	return out
}

func TestCLI_RecordThenShow(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "compactcols.yaml")
	cfgData := "store:\n  driver: json\n  path: " + filepath.Join(dir, "builds.json") + "\n" +
		"logging:\n  output: discard\n" +
		"defaults:\n  timezone: UTC\n"
	if err := os.WriteFile(configPath, []byte(cfgData), 0o644); err != nil {
		t.Fatal(err)
	}

	execute := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args, "--config", configPath))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}

	now := time.Now().UTC()
	execute("record", "--job", "api", "--result", "success", "--duration", "1m",
		"--started", now.Add(-3*time.Hour).Format(time.RFC3339))
	out := execute("record", "--job", "api", "--result", "failed", "--duration", "2m",
		"--started", now.Add(-time.Hour).Format(time.RFC3339))
	if got, want := strings.TrimSpace(out), "api #2 FAILURE"; got != want {
		t.Errorf("record output = %q, want %q", got, want)
	}

	var views []*board.View
	if err := json.Unmarshal([]byte(execute("show", "--json", "api")), &views); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}

	var got []string
	for _, c := range views[0].Cells {
		got = append(got, c.Category)
	}
	if diff := cmp.Diff([]string{"failed", "stable"}, got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

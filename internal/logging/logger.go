// Package logging builds the process's slog loggers and carries them through
// contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/caevv/compactcols/internal/history"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const loggerContextKey contextKey = "logger"

// secretPatterns match attribute keys whose values are never written.
// Job environments end up in log attributes, so the usual credential names
// are covered.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i).*_TOKEN$`),
	regexp.MustCompile(`(?i).*_SECRET$`),
	regexp.MustCompile(`(?i).*_KEY$`),
	regexp.MustCompile(`(?i).*PASSWORD.*`),
	regexp.MustCompile(`(?i)^authorization$`),
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a level.
// Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// New creates a JSON logger on stdout. Unknown levels fall back to info.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a JSON logger writing to w.
// This is useful for testing or custom output destinations.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	lvl, _ := ParseLevel(level)
	return slog.New(slog.NewJSONHandler(w, handlerOptions(lvl)))
}

// NewFromConfig creates a logger from the logging section of the config.
// Output is "stderr", "stdout", "discard" or a file path, which is appended
// to. The returned closer releases the file and is a no-op otherwise.
func NewFromConfig(format, level, output string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var text bool
	switch strings.ToLower(format) {
	case "text":
		text = true
	case "json", "":
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}

	var writer io.Writer
	var closer io.Closer = nopCloser{}
	switch output {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	case "discard", "/dev/null":
		writer = io.Discard
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writer = f
		closer = f
	}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(writer, handlerOptions(lvl))
	} else {
		handler = slog.NewJSONHandler(writer, handlerOptions(lvl))
	}

	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: redactSecrets,
	}
}

// redactSecrets is a ReplaceAttr function that redacts sensitive fields.
func redactSecrets(groups []string, a slog.Attr) slog.Attr {
	for _, pattern := range secretPatterns {
		if pattern.MatchString(a.Key) {
			return slog.String(a.Key, "***REDACTED***")
		}
	}
	return a
}

// WithContext attaches a logger to a context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext retrieves a logger from the context, or slog.Default when
// none is attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithBuild returns a logger that tags every record with the build's job,
// number and ID.
func WithBuild(logger *slog.Logger, b *history.Build) *slog.Logger {
	return logger.With(
		slog.String("job_id", b.JobID),
		slog.Int("build", b.Number),
		slog.String("build_id", b.ID),
	)
}

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/caevv/compactcols/internal/column"
	"github.com/caevv/compactcols/internal/store"
	"github.com/caevv/compactcols/internal/timefmt"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COMPACTCOLS_"

// DefaultColumnName is the name of the column implied when none is configured.
const DefaultColumnName = "status"

// envOverrides are the settings that can be replaced from the environment,
// e.g. COMPACTCOLS_ADDR=:9090.
type envOverrides struct {
	Addr      string `env:"ADDR"`
	Locale    string `env:"LOCALE"`
	Timezone  string `env:"TIMEZONE"`
	LogLevel  string `env:"LOG_LEVEL"`
	StorePath string `env:"STORE_PATH"`
}

var intervalPattern = regexp.MustCompile(`^every\s+\d+\s*(s|sec|second|seconds|m|min|minute|minutes|h|hour|hours|d|day|days)$`)

// LoadConfig loads and validates a configuration from a YAML file, applying
// overrides from the process environment.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigWithEnv(path, os.Environ())
}

// LoadConfigWithEnv is LoadConfig with an explicit environment in
// "KEY=value" form.
func LoadConfigWithEnv(path string, environ []string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, environ)
}

// Parse decodes, overrides, defaults and validates a configuration.
func Parse(data []byte, environ []string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := applyEnv(&cfg, environ); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default(environ []string) (*Config, error) {
	return Parse(nil, environ)
}

func applyEnv(cfg *Config, environ []string) error {
	var o envOverrides
	err := env.ParseWithOptions(&o, env.Options{
		Environment: env.ToMap(environ),
		Prefix:      EnvPrefix,
	})
	if err != nil {
		return err
	}

	if o.Addr != "" {
		cfg.Server.Addr = o.Addr
	}
	if o.Locale != "" {
		cfg.Defaults.Locale = o.Locale
	}
	if o.Timezone != "" {
		cfg.Defaults.Timezone = o.Timezone
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	return nil
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Defaults section
	if cfg.Defaults.Timezone == "" {
		cfg.Defaults.Timezone = "Local"
	}
	if cfg.Defaults.Locale == "" {
		cfg.Defaults.Locale = "en-US"
	}

	// Store section
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = store.DriverBolt
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./.compactcols.db"
	}
	if cfg.Store.HistoryLimit == 0 {
		cfg.Store.HistoryLimit = 100
	}

	// Logging section
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if len(cfg.Columns) == 0 {
		cfg.Columns = []Column{{Name: DefaultColumnName, Type: string(column.PresetAllStatuses)}}
	}
	for i := range cfg.Columns {
		col := &cfg.Columns[i]
		if col.Type == "" {
			col.Type = string(column.PresetAllStatuses)
		}
		if col.TimeAgo == "" {
			col.TimeAgo = timefmt.ModeDiff.String()
		}
	}

	// Job-level defaults
	for i := range cfg.Jobs {
		job := &cfg.Jobs[i]
		if job.TimeoutSec == 0 {
			job.TimeoutSec = 600 // 10 minutes default
		}
		if job.Workdir == "" {
			job.Workdir = "."
		}
		if job.Env == nil {
			job.Env = make(map[string]string)
		}
	}
}

// validate checks the configuration for errors and inconsistencies.
func validate(cfg *Config) error {
	if !store.IsSupportedDriver(cfg.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (supported: %v)", cfg.Store.Driver, store.SupportedDrivers)
	}
	if cfg.Store.HistoryLimit < 0 {
		return fmt.Errorf("store.history_limit must be non-negative")
	}

	if _, err := cfg.Location(); err != nil {
		return err
	}
	if _, err := timefmt.ParseLocale(cfg.Defaults.Locale); err != nil {
		return fmt.Errorf("defaults.locale: %w", err)
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format: %s (must be 'json' or 'text')", cfg.Logging.Format)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", cfg.Logging.Level)
	}

	columnNames := make(map[string]bool)
	for i, col := range cfg.Columns {
		if col.Name == "" {
			return fmt.Errorf("column at index %d is missing a name", i)
		}
		if columnNames[col.Name] {
			return fmt.Errorf("duplicate column name: %s", col.Name)
		}
		columnNames[col.Name] = true

		if _, err := col.Policy(); err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
	}

	jobIDs := make(map[string]bool)
	for i, job := range cfg.Jobs {
		// Check for required fields
		if job.ID == "" {
			return fmt.Errorf("job at index %d is missing an ID", i)
		}
		if job.Schedule == "" {
			return fmt.Errorf("job %s is missing a schedule", job.ID)
		}
		if job.Command.String() == "" {
			return fmt.Errorf("job %s is missing a command", job.ID)
		}

		// Check for duplicate job IDs
		if jobIDs[job.ID] {
			return fmt.Errorf("duplicate job ID: %s", job.ID)
		}
		jobIDs[job.ID] = true

		if err := ValidateSchedule(job.Schedule); err != nil {
			return fmt.Errorf("job %s has invalid schedule: %w", job.ID, err)
		}

		if job.TimeoutSec < 0 {
			return fmt.Errorf("job %s has negative timeout_sec", job.ID)
		}

		for _, code := range job.UnstableExitCodes {
			if code <= 0 || code > 255 {
				return fmt.Errorf("job %s: unstable exit code %d out of range 1-255", job.ID, code)
			}
		}
	}

	return nil
}

// Location resolves defaults.timezone.
func (cfg *Config) Location() (*time.Location, error) {
	if cfg.Defaults.Timezone == "" || cfg.Defaults.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Defaults.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid defaults.timezone %q: %w", cfg.Defaults.Timezone, err)
	}
	return loc, nil
}

// Column returns the column with the given name.
func (cfg *Config) Column(name string) (*Column, bool) {
	for i := range cfg.Columns {
		if cfg.Columns[i].Name == name {
			return &cfg.Columns[i], true
		}
	}
	return nil, false
}

// Job returns the job with the given ID.
func (cfg *Config) Job(id string) (*Job, bool) {
	for i := range cfg.Jobs {
		if cfg.Jobs[i].ID == id {
			return &cfg.Jobs[i], true
		}
	}
	return nil, false
}

// Policy resolves the column's preset and applies its overrides.
func (c Column) Policy() (column.Policy, error) {
	preset, err := column.ParsePreset(c.Type)
	if err != nil {
		return column.Policy{}, err
	}
	p := preset.Policy()

	if c.FailedOnlyIfLast != nil {
		p.FailedOnlyIfLast = *c.FailedOnlyIfLast
	}
	if c.UnstableOnlyIfLast != nil {
		p.UnstableOnlyIfLast = *c.UnstableOnlyIfLast
	}
	if c.ColorblindHint != nil {
		p.ShowColorblindHint = *c.ColorblindHint
	}
	p.OnlyShowLastStatus = c.OnlyShowLastStatus
	p.HideBuildsOlderThanDays = c.HideDays

	mode, err := timefmt.ParseMode(c.TimeAgo)
	if err != nil {
		return column.Policy{}, err
	}
	p.TimeMode = mode

	if err := p.Validate(); err != nil {
		return column.Policy{}, err
	}
	return p, nil
}

// ValidateSchedule checks if a schedule expression is valid.
// Supports cron expressions, @-prefixed shortcuts, @every and "every" intervals.
func ValidateSchedule(schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return fmt.Errorf("schedule cannot be empty")
	}

	if intervalPattern.MatchString(strings.ToLower(schedule)) {
		return nil
	}

	// Check for @-prefixed shortcuts
	if strings.HasPrefix(schedule, "@") {
		shortcuts := []string{"@annually", "@yearly", "@monthly", "@weekly", "@daily", "@hourly"}
		for _, shortcut := range shortcuts {
			if schedule == shortcut {
				return nil
			}
		}

		// Check for @every interval
		if strings.HasPrefix(schedule, "@every ") {
			interval := strings.TrimPrefix(schedule, "@every ")
			if _, err := time.ParseDuration(interval); err == nil {
				return nil
			}
			return fmt.Errorf("invalid @every interval: %s (must be like '5m', '1h', '30s')", interval)
		}

		return fmt.Errorf("unknown schedule shortcut: %s", schedule)
	}

	// robfig/cron validates the fields themselves when the job is added.
	fields := strings.Fields(schedule)
	if len(fields) < 5 || len(fields) > 6 {
		return fmt.Errorf("cron expression must have 5 or 6 fields, got %d", len(fields))
	}

	return nil
}

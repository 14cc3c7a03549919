package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level configuration structure for compactcols.
type Config struct {
	Defaults Defaults `yaml:"defaults"`
	Store    Store    `yaml:"store"`
	Logging  Logging  `yaml:"logging"`
	Server   Server   `yaml:"server"`
	Columns  []Column `yaml:"columns"`
	Jobs     []Job    `yaml:"jobs"`
}

// Defaults holds values used wherever a request does not say otherwise.
type Defaults struct {
	Timezone string `yaml:"timezone"` // IANA zone for absolute times, "Local" for the host zone
	Locale   string `yaml:"locale"`   // BCP 47 tag, e.g. "en-US" or "de"
}

// Store configuration for build history persistence.
type Store struct {
	Driver       string `yaml:"driver"`        // "bbolt" or "json"
	Path         string `yaml:"path"`          // file path for the store
	HistoryLimit int    `yaml:"history_limit"` // builds loaded per job when rendering a column
}

// Logging configures the process logger.
type Logging struct {
	Format string `yaml:"format"` // "json" or "text"
	Level  string `yaml:"level"`  // "debug", "info", "warn" or "error"
	Output string `yaml:"output"` // "stderr", "stdout", "discard" or a file path
}

// Server configures the JSON API.
type Server struct {
	Addr string `yaml:"addr"`
}

// Column is one configured status column. Unset options take the
// preset's value.
type Column struct {
	Name               string `yaml:"name"`
	Type               string `yaml:"type"` // last-stable-and-unstable, last-success-and-failed, all-statuses
	FailedOnlyIfLast   *bool  `yaml:"failed_only_if_last"`
	UnstableOnlyIfLast *bool  `yaml:"unstable_only_if_last"`
	OnlyShowLastStatus bool   `yaml:"only_show_last_status"`
	ColorblindHint     *bool  `yaml:"colorblind_hint"`
	HideDays           int    `yaml:"hide_days"`
	TimeAgo            string `yaml:"time_ago"` // DIFF, PREFER_DATES or PREFER_DATE_TIME
}

// Job represents a single scheduled job whose runs are recorded as builds.
type Job struct {
	ID                string            `yaml:"id"`                  // unique job identifier
	Schedule          string            `yaml:"schedule"`            // cron expression or human-readable interval
	Command           Command           `yaml:"command"`             // command to execute
	Workdir           string            `yaml:"workdir"`             // working directory for the command
	TimeoutSec        int               `yaml:"timeout_sec"`         // job execution timeout
	Env               map[string]string `yaml:"env"`                 // environment variables
	UnstableExitCodes []int             `yaml:"unstable_exit_codes"` // exit codes recorded as UNSTABLE
}

// Command is a job command given either as a shell string or as an argv list.
type Command struct {
	shell string
	argv  []string
}

// NewShellCommand returns a Command run through /bin/sh -c.
func NewShellCommand(s string) Command {
	return Command{shell: s}
}

// NewArgvCommand returns a Command executed without a shell.
func NewArgvCommand(argv ...string) Command {
	return Command{argv: argv}
}

// UnmarshalYAML accepts a scalar or a sequence of strings.
func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		c.shell = strings.TrimSpace(value.Value)
		c.argv = nil
		return nil
	case yaml.SequenceNode:
		var argv []string
		if err := value.Decode(&argv); err != nil {
			return fmt.Errorf("decode command list: %w", err)
		}
		c.shell = ""
		c.argv = argv
		return nil
	}
	return fmt.Errorf("line %d: command must be a string or a list of strings", value.Line)
}

// Parts returns the argv to execute.
func (c Command) Parts() []string {
	if len(c.argv) > 0 {
		return c.argv
	}
	if c.shell == "" {
		return nil
	}
	return []string{"/bin/sh", "-c", c.shell}
}

// String returns the command as written in the configuration.
func (c Command) String() string {
	if len(c.argv) > 0 {
		return strings.Join(c.argv, " ")
	}
	return c.shell
}

// Package column selects the builds shown in a job's compact status column
// and annotates them for display.
//
// A column is a Policy plus a timefmt.Formatter. Scan extracts at most one
// candidate per status category from a history.History, Select orders and
// filters the candidates and formats their times. Both are pure: the caller
// samples "now" once per request and passes it in.
package column

import (
	"fmt"
	"strings"

	"github.com/caevv/compactcols/internal/timefmt"
)

// Policy controls which builds a column shows and how their times render.
type Policy struct {
	// FailedOnlyIfLast hides the last failed build unless it is also the
	// last completed build.
	FailedOnlyIfLast bool

	// UnstableOnlyIfLast hides the last unstable build unless it is also the
	// last completed build.
	UnstableOnlyIfLast bool

	// OnlyShowLastStatus keeps at most one build, the newest.
	OnlyShowLastStatus bool

	// ShowColorblindHint enables the per-category underline styles.
	ShowColorblindHint bool

	// HideBuildsOlderThanDays drops builds started more than this many days
	// ago. The newest build is always kept. Zero disables the cutoff.
	HideBuildsOlderThanDays int

	// TimeMode selects relative or absolute time strings.
	TimeMode timefmt.Mode
}

// Validate checks the policy for values that cannot be applied.
func (p Policy) Validate() error {
	if p.HideBuildsOlderThanDays < 0 {
		return fmt.Errorf("hide days must be >= 0, got %d", p.HideBuildsOlderThanDays)
	}
	if p.TimeMode < timefmt.ModeDiff || p.TimeMode > timefmt.ModePreferDateTime {
		return fmt.Errorf("unknown time mode %v", p.TimeMode)
	}
	return nil
}

// Preset names one of the fixed column kinds.
type Preset string

const (
	// PresetLastStableAndUnstable shows the last stable and last unstable
	// builds, and the last failure only while it is the newest result.
	PresetLastStableAndUnstable Preset = "last-stable-and-unstable"

	// PresetLastSuccessAndFailed shows the last stable and last failed
	// builds, and the last unstable build only while it is the newest result.
	PresetLastSuccessAndFailed Preset = "last-success-and-failed"

	// PresetAllStatuses shows the last build of every status.
	PresetAllStatuses Preset = "all-statuses"
)

// Presets lists every preset in display order.
var Presets = []Preset{
	PresetLastStableAndUnstable,
	PresetLastSuccessAndFailed,
	PresetAllStatuses,
}

// ParsePreset accepts a preset name case-insensitively. Empty means
// PresetAllStatuses.
func ParsePreset(s string) (Preset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PresetAllStatuses, nil
	}
	for _, p := range Presets {
		if s == string(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown column type %q (supported: %v)", s, Presets)
}

// Policy returns the preset's default policy: colorblind hints on, no
// cutoff, relative times.
func (p Preset) Policy() Policy {
	pol := Policy{ShowColorblindHint: true, TimeMode: timefmt.ModeDiff}
	switch p {
	case PresetLastStableAndUnstable:
		pol.FailedOnlyIfLast = true
	case PresetLastSuccessAndFailed:
		pol.UnstableOnlyIfLast = true
	}
	return pol
}

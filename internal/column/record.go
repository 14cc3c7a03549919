package column

import (
	"fmt"
	"time"

	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/i18n"
)

// Category is the status a record is shown for.
type Category int

const (
	CategoryFailed Category = iota
	CategoryUnstable
	CategoryStable
	CategoryAborted
)

type categoryStyle struct {
	name      string
	color     string
	underline string
	label     i18n.Key
}

var categoryStyles = map[Category]categoryStyle{
	CategoryFailed:   {"failed", "#ef2929", "1px solid", i18n.StatusFailed},
	CategoryUnstable: {"unstable", "orange", "1px dashed", i18n.StatusUnstable},
	CategoryStable:   {"stable", "#0000ff", "0px solid", i18n.StatusStable},
	CategoryAborted:  {"aborted", "gray", "1px dashed", i18n.StatusAborted},
}

func (c Category) String() string {
	if s, ok := categoryStyles[c]; ok {
		return s.name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Color is the CSS color the category is drawn in.
func (c Category) Color() string {
	return categoryStyles[c].color
}

// Underline is the CSS border style that tells categories apart without color.
func (c Category) Underline() string {
	return categoryStyles[c].underline
}

// Record is one build shown in a column.
type Record struct {
	Build    *history.Build
	Category Category

	Color string
	// Underline is empty when colorblind hints are off.
	Underline string
	// Status is the localized category label.
	Status string
	// URLPart addresses the build relative to its job.
	URLPart string

	// TimeAgo is set by Select, only for records that are shown.
	TimeAgo string

	// First marks the newest shown record.
	First bool
	// LatestBuild marks the job's last completed build, or its last build
	// when none has completed.
	LatestBuild bool
	// MultipleBuilds is set on every record when more than one is shown.
	MultipleBuilds bool
}

// BuildTime returns when the build started.
func (r *Record) BuildTime() time.Time {
	return r.Build.StartTime
}

// FontWeight is "bold" for the latest build when it shares the column with
// others.
func (r *Record) FontWeight() string {
	if r.LatestBuild && r.MultipleBuilds {
		return "bold"
	}
	return "normal"
}

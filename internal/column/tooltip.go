package column

import (
	"time"

	"github.com/caevv/compactcols/internal/i18n"
)

// Tooltip is the hover text of a record.
type Tooltip struct {
	Title      string `json:"title"`
	BuiltAt    string `json:"built_at"`
	StartedAgo string `json:"started_ago"`
	Lasted     string `json:"lasted"`
	Status     string `json:"status"`
}

// Lines returns the tooltip in display order.
func (t Tooltip) Lines() []string {
	return []string{t.Title, t.BuiltAt, t.StartedAgo, t.Lasted, t.Status}
}

// Tooltip describes r. A build that is still running shows how long it has
// been running so far.
func (c *Column) Tooltip(r *Record, now time.Time) Tooltip {
	f := c.Formatter
	cat := f.Locale().Catalog()

	title := cat.Format(i18n.TooltipBuildNumber, r.Build.Number)
	if r.LatestBuild {
		title += " (" + cat.Format(i18n.TooltipLatest) + ")"
	}

	var lasted string
	if r.Build.Building {
		lasted = cat.Format(i18n.TooltipInProgress, f.Span(now.Sub(r.BuildTime())))
	} else {
		lasted = f.Span(r.Build.Duration)
	}

	return Tooltip{
		Title:      title,
		BuiltAt:    cat.Format(i18n.TooltipBuiltAt, f.BuildTime(r.BuildTime())),
		StartedAgo: cat.Format(i18n.TooltipStartedAgo, r.TimeAgo),
		Lasted:     cat.Format(i18n.TooltipLasted, lasted),
		Status:     r.Status,
	}
}

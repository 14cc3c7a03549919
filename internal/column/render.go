package column

import (
	"time"

	"github.com/caevv/compactcols/internal/history"
)

// Cell is the display form of a Record.
type Cell struct {
	Number         int            `json:"number"`
	URL            string         `json:"url"`
	Result         history.Result `json:"result,omitempty"`
	Building       bool           `json:"building,omitempty"`
	Category       string         `json:"category"`
	Status         string         `json:"status"`
	Color          string         `json:"color"`
	Underline      string         `json:"underline,omitempty"`
	FontWeight     string         `json:"font_weight"`
	TimeAgo        string         `json:"time_ago"`
	First          bool           `json:"first"`
	LatestBuild    bool           `json:"latest_build"`
	MultipleBuilds bool           `json:"multiple_builds"`
	Tooltip        Tooltip        `json:"tooltip"`
}

// Render returns the cells the column shows for h, newest first.
func (c *Column) Render(h history.History, now time.Time) []Cell {
	records := c.Builds(h, now)
	cells := make([]Cell, 0, len(records))
	for _, r := range records {
		cells = append(cells, Cell{
			Number:         r.Build.Number,
			URL:            r.URLPart + "/",
			Result:         r.Build.Result,
			Building:       r.Build.Building,
			Category:       r.Category.String(),
			Status:         r.Status,
			Color:          r.Color,
			Underline:      r.Underline,
			FontWeight:     r.FontWeight(),
			TimeAgo:        r.TimeAgo,
			First:          r.First,
			LatestBuild:    r.LatestBuild,
			MultipleBuilds: r.MultipleBuilds,
			Tooltip:        c.Tooltip(r, now),
		})
	}
	return cells
}

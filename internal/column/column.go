package column

import (
	"strconv"
	"time"

	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/timefmt"
)

// Column renders one configured status column for any job.
type Column struct {
	Name      string
	Policy    Policy
	Formatter *timefmt.Formatter
}

// New returns a Column. The formatter decides locale and time zone.
func New(name string, p Policy, f *timefmt.Formatter) *Column {
	return &Column{Name: name, Policy: p, Formatter: f}
}

// WithFormatter returns a copy of c that renders with f, e.g. for a
// request-specific locale.
func (c *Column) WithFormatter(f *timefmt.Formatter) *Column {
	cp := *c
	cp.Formatter = f
	return &cp
}

// Builds returns the records to display for h, newest first.
func (c *Column) Builds(h history.History, now time.Time) []*Record {
	candidates := Scan(h, c.Policy, c.Formatter.Locale().Catalog())
	return Select(candidates, c.Policy, now, c.Formatter)
}

// SortData is the key the column sorts jobs by: the start time of the newest
// shown build in epoch milliseconds, "0" when nothing is shown.
func (c *Column) SortData(h history.History, now time.Time) string {
	builds := c.Builds(h, now)
	if len(builds) == 0 {
		return "0"
	}
	return strconv.FormatInt(builds[0].BuildTime().UnixMilli(), 10)
}

// IsEmpty reports whether the column shows nothing for h.
func (c *Column) IsEmpty(h history.History, now time.Time) bool {
	return len(c.Builds(h, now)) == 0
}

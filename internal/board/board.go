// Package board renders the configured status columns for the jobs recorded
// in a build store.
package board

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caevv/compactcols/internal/column"
	"github.com/caevv/compactcols/internal/config"
	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/store"
	"github.com/caevv/compactcols/internal/timefmt"
)

// ErrUnknownColumn is returned for a column name that is not configured.
var ErrUnknownColumn = errors.New("unknown column")

// Board joins a build store with a set of columns.
type Board struct {
	store    store.Store
	columns  []*column.Column
	location *time.Location
	locale   *timefmt.Locale
	limit    int
}

// View is one column rendered for one job.
type View struct {
	JobID    string        `json:"job_id"`
	Column   string        `json:"column"`
	Locale   string        `json:"locale"`
	SortData string        `json:"sort_data"`
	Empty    bool          `json:"empty"`
	Cells    []column.Cell `json:"builds"`
}

// New returns a Board. Columns render with their own formatter unless a
// locale is passed to Render.
func New(st store.Store, columns []*column.Column, loc *time.Location, l *timefmt.Locale, limit int) *Board {
	return &Board{
		store:    st,
		columns:  columns,
		location: loc,
		locale:   l,
		limit:    limit,
	}
}

// FromConfig builds the columns, locale and time zone described by cfg.
func FromConfig(cfg *config.Config, st store.Store) (*Board, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	l, err := timefmt.ParseLocale(cfg.Defaults.Locale)
	if err != nil {
		return nil, fmt.Errorf("defaults.locale: %w", err)
	}
	f := timefmt.NewFormatter(l, loc)

	columns := make([]*column.Column, 0, len(cfg.Columns))
	for _, c := range cfg.Columns {
		p, err := c.Policy()
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		columns = append(columns, column.New(c.Name, p, f))
	}

	return New(st, columns, loc, l, cfg.Store.HistoryLimit), nil
}

// Columns returns the configured columns in order.
func (b *Board) Columns() []*column.Column {
	return b.columns
}

// Column returns the column with the given name.
func (b *Board) Column(name string) (*column.Column, bool) {
	for _, c := range b.columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Locale returns the default locale.
func (b *Board) Locale() *timefmt.Locale {
	return b.locale
}

// Jobs returns the IDs of all jobs with recorded builds, sorted.
func (b *Board) Jobs() ([]string, error) {
	jobs, err := b.store.ListJobs()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	slices.Sort(jobs)
	return jobs, nil
}

// Render renders one column for one job. A nil locale uses the column's own.
func (b *Board) Render(jobID, columnName string, l *timefmt.Locale, now time.Time) (*View, error) {
	c, ok := b.Column(columnName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, columnName)
	}
	h, err := store.LoadHistory(b.store, jobID, b.limit)
	if err != nil {
		return nil, err
	}
	return b.render(jobID, c, h, l, now), nil
}

// Row renders every column for one job, in column order.
func (b *Board) Row(jobID string, l *timefmt.Locale, now time.Time) ([]*View, error) {
	h, err := store.LoadHistory(b.store, jobID, b.limit)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(b.columns))
	for _, c := range b.columns {
		views = append(views, b.render(jobID, c, h, l, now))
	}
	return views, nil
}

func (b *Board) render(jobID string, c *column.Column, h history.History, l *timefmt.Locale, now time.Time) *View {
	if l != nil {
		c = c.WithFormatter(timefmt.NewFormatter(l, b.location))
	}
	cells := c.Render(h, now)
	return &View{
		JobID:    jobID,
		Column:   c.Name,
		Locale:   c.Formatter.Locale().Tag().String(),
		SortData: c.SortData(h, now),
		Empty:    len(cells) == 0,
		Cells:    cells,
	}
}

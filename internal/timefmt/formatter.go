package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how a build's time is shown in the column.
type Mode int

const (
	// ModeDiff always shows elapsed time ("2.1 days").
	ModeDiff Mode = iota
	// ModePreferDates shows the time of day for builds from today, the date otherwise.
	ModePreferDates
	// ModePreferDateTime shows date and time when a single build is shown,
	// otherwise behaves like ModePreferDates.
	ModePreferDateTime
)

var modeNames = map[Mode]string{
	ModeDiff:           "DIFF",
	ModePreferDates:    "PREFER_DATES",
	ModePreferDateTime: "PREFER_DATE_TIME",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the mode names case-insensitively. Empty means ModeDiff.
func ParseMode(s string) (Mode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ModeDiff, nil
	}
	for m, name := range modeNames {
		if s == name {
			return m, nil
		}
	}
	return ModeDiff, fmt.Errorf("unknown time display mode %q (must be DIFF, PREFER_DATES or PREFER_DATE_TIME)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Formatter renders times for one locale in one time zone.
type Formatter struct {
	locale *Locale
	loc    *time.Location
}

// NewFormatter returns a Formatter. A nil location means time.Local.
func NewFormatter(l *Locale, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{locale: l, loc: loc}
}

// Locale returns the formatter's locale.
func (f *Formatter) Locale() *Locale {
	return f.locale
}

// Relative renders elapsed time, see the package-level Relative.
func (f *Formatter) Relative(elapsed time.Duration) string {
	return Relative(f.locale.catalog, elapsed)
}

// Span renders a build duration, see the package-level Span.
func (f *Formatter) Span(d time.Duration) string {
	return Span(f.locale.catalog, d)
}

// Date renders the short date with a four-digit year.
func (f *Formatter) Date(t time.Time) string {
	return f.format(f.locale.date, t)
}

// Time renders the short time of day.
func (f *Formatter) Time(t time.Time) string {
	return f.format(f.locale.time, t)
}

// DateTime renders the locale's combined short date-time pattern.
func (f *Formatter) DateTime(t time.Time) string {
	return f.format(f.locale.dateTime, t)
}

// BuildTime renders "<time>, <date>".
func (f *Formatter) BuildTime(t time.Time) string {
	return f.Time(t) + ", " + f.Date(t)
}

// TimeAgo renders the time of a build started at t according to mode.
// multiple tells whether other builds are shown next to this one.
func (f *Formatter) TimeAgo(t, now time.Time, mode Mode, multiple bool) string {
	switch {
	case mode == ModeDiff:
		return f.Relative(now.Sub(t))
	case mode == ModePreferDateTime && !multiple:
		return f.DateTime(t)
	case f.sameDay(t, now):
		return f.Time(t)
	default:
		return f.Date(t)
	}
}

// sameDay compares the day of the year only, so Jan 1 of two different
// years counts as the same day.
func (f *Formatter) sameDay(t, now time.Time) bool {
	return t.In(f.loc).YearDay() == now.In(f.loc).YearDay()
}

func (f *Formatter) format(p Pattern, t time.Time) string {
	c := f.locale.catalog
	return p.Format(t.In(f.loc), c.AM(), c.PM())
}

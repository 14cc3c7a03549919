package timefmt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caevv/compactcols/internal/i18n"
	"golang.org/x/text/language"
)

// ErrUnsupportedLocale is returned when a locale cannot be turned into date
// patterns. It is a configuration error; retrying will not help.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// shortPatterns are the short date and time patterns per locale. The first
// entry is the matcher's default. Locales not listed resolve to their closest
// listed relative, English when nothing is close.
var shortPatterns = []struct {
	tag  language.Tag
	date string
	time string
}{
	{language.AmericanEnglish, "M/d/yy", "h:mm a"},
	{language.English, "M/d/yy", "h:mm a"},
	{language.MustParse("en-CA"), "dd/MM/yy", "h:mm a"},
	{language.BritishEnglish, "dd/MM/yy", "HH:mm"},
	{language.MustParse("en-AU"), "d/MM/yy", "h:mm a"},
	{language.German, "dd.MM.yy", "HH:mm"},
	{language.French, "dd/MM/yy", "HH:mm"},
	{language.Spanish, "d/MM/yy", "H:mm"},
	{language.Italian, "dd/MM/yy", "H.mm"},
	{language.Dutch, "d-M-yy", "H:mm"},
	{language.BrazilianPortuguese, "dd/MM/yy", "HH:mm"},
	{language.Swedish, "yyyy-MM-dd", "HH:mm"},
	{language.Polish, "dd.MM.yy", "HH:mm"},
	{language.Russian, "dd.MM.yy", "H:mm"},
	{language.Japanese, "yy/MM/dd", "H:mm"},
}

var patternMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(shortPatterns))
	for i, p := range shortPatterns {
		tags[i] = p.tag
	}
	return language.NewMatcher(tags)
}()

// Locale bundles the patterns and string table for one language.
type Locale struct {
	tag      language.Tag
	catalog  *i18n.Catalog
	date     Pattern
	time     Pattern
	dateTime Pattern
}

// ParseLocale resolves a BCP 47 tag such as "en-US" or "de". Underscore
// separated forms ("en_US") are accepted too.
func ParseLocale(s string) (*Locale, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	if s == "" {
		return nil, fmt.Errorf("%w: empty locale", ErrUnsupportedLocale)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedLocale, s, err)
	}
	return NewLocale(tag)
}

// NewLocale builds the Locale that best matches tag.
func NewLocale(tag language.Tag) (*Locale, error) {
	return MatchLocale(tag)
}

// MatchLocale builds the Locale that best matches the preferred tags, most
// preferred first, as parsed from an Accept-Language header.
func MatchLocale(tags ...language.Tag) (*Locale, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: no language given", ErrUnsupportedLocale)
	}
	_, idx, _ := patternMatcher.Match(tags...)
	entry := shortPatterns[idx]
	tag := entry.tag

	catalog, err := i18n.Lookup(tag)
	if err != nil {
		return nil, fmt.Errorf("load string table: %w", err)
	}

	return &Locale{
		tag:      entry.tag,
		catalog:  catalog,
		date:     Pattern(forceFourDigitYear(entry.date)),
		time:     Pattern(entry.time),
		dateTime: Pattern(forceFourDigitYear(entry.date + " " + entry.time)),
	}, nil
}

// MustLocale is ParseLocale for literals known to be valid.
func MustLocale(s string) *Locale {
	l, err := ParseLocale(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Tag returns the matched locale, which may be a relative of the requested one.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// Catalog returns the string table for the locale's language.
func (l *Locale) Catalog() *i18n.Catalog {
	return l.catalog
}

// DatePattern returns the short date pattern with a four-digit year.
func (l *Locale) DatePattern() string {
	return string(l.date)
}

// DateTimePattern returns the short date-time pattern with a four-digit year.
func (l *Locale) DateTimePattern() string {
	return string(l.dateTime)
}

// Package i18n is the string table used by the status column: unit labels,
// status labels and tooltip templates, keyed by a fixed set of identifiers.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"strconv"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"
)

// Key identifies a message in the string table.
type Key string

const (
	UnitMillisecond Key = "unit.millisecond"
	UnitSecond      Key = "unit.second"
	UnitMinute      Key = "unit.minute"
	UnitHour        Key = "unit.hour"
	UnitDay         Key = "unit.day"
	UnitMonth       Key = "unit.month"
	UnitYear        Key = "unit.year"

	StatusFailed   Key = "status.failed"
	StatusUnstable Key = "status.unstable"
	StatusStable   Key = "status.stable"
	StatusAborted  Key = "status.aborted"

	TooltipBuildNumber Key = "tooltip.build_number"
	TooltipLatest      Key = "tooltip.latest"
	TooltipBuiltAt     Key = "tooltip.built_at"
	TooltipStartedAgo  Key = "tooltip.started_ago"
	TooltipLasted      Key = "tooltip.lasted"
	TooltipInProgress  Key = "tooltip.in_progress"

	TimeAM Key = "time.am"
	TimePM Key = "time.pm"
)

//go:embed bundles/*.yaml
var bundleFS embed.FS

// Catalog holds the messages of one language. Lookups that miss fall back to
// English, and then to the key itself.
type Catalog struct {
	tag       language.Tag
	localizer *goi18n.Localizer
	printer   *message.Printer
}

var (
	loadOnce  sync.Once
	loadErr   error
	catalogs  map[language.Tag]*Catalog
	supported []language.Tag
	matcher   language.Matcher
)

func load() {
	entries, err := bundleFS.ReadDir("bundles")
	if err != nil {
		loadErr = fmt.Errorf("read bundles: %w", err)
		return
	}

	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	catalogs = make(map[language.Tag]*Catalog, len(entries))
	// English first so it becomes the matcher's default.
	supported = []language.Tag{language.English}
	for _, e := range entries {
		mf, err := bundle.LoadMessageFileFS(bundleFS, path.Join("bundles", e.Name()))
		if err != nil {
			loadErr = fmt.Errorf("load bundle %s: %w", e.Name(), err)
			return
		}
		if _, ok := catalogs[mf.Tag]; !ok && mf.Tag != language.English {
			supported = append(supported, mf.Tag)
		}
		catalogs[mf.Tag] = nil
	}

	if _, ok := catalogs[language.English]; !ok {
		loadErr = errors.New("missing English bundle")
		return
	}
	for tag := range catalogs {
		catalogs[tag] = &Catalog{
			tag:       tag,
			localizer: goi18n.NewLocalizer(bundle, tag.String()),
			printer:   message.NewPrinter(tag),
		}
	}
	matcher = language.NewMatcher(supported)
}

// Lookup returns the catalog that best matches tag, English when nothing is
// close. It only fails if the embedded bundles are broken.
func Lookup(tag language.Tag) (*Catalog, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	_, idx, _ := matcher.Match(tag)
	return catalogs[supported[idx]], nil
}

// MustLookup is Lookup for callers that ship with the embedded bundles.
func MustLookup(tag language.Tag) *Catalog {
	c, err := Lookup(tag)
	if err != nil {
		panic(err)
	}
	return c
}

// Tag returns the language of the catalog.
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// AM returns the ante meridiem marker.
func (c *Catalog) AM() string {
	return c.Format(TimeAM)
}

// PM returns the post meridiem marker.
func (c *Catalog) PM() string {
	return c.Format(TimePM)
}

// Format renders the message for key. The first argument is available to
// the template as {{.Value}}, formatted for the catalog's language, and a
// numeric first argument selects the plural form.
func (c *Catalog) Format(key Key, args ...any) string {
	lc := &goi18n.LocalizeConfig{MessageID: string(key)}
	if len(args) > 0 {
		lc.TemplateData = map[string]string{"Value": c.formatArg(args[0])}
		lc.PluralCount = pluralCount(args[0])
	}

	s, err := c.localizer.Localize(lc)
	if err != nil && lc.PluralCount != nil {
		// Messages without plural forms only carry "other".
		lc.PluralCount = nil
		s, err = c.localizer.Localize(lc)
	}
	if err != nil {
		return string(key)
	}
	return s
}

// FormatNumber renders v without grouping, using the language's decimal
// separator, e.g. 1.5 -> "1,5" in German.
func (c *Catalog) FormatNumber(v float64) string {
	return c.printer.Sprint(number.Decimal(v, number.NoSeparator()))
}

func (c *Catalog) formatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case float64:
		return c.FormatNumber(v)
	case float32:
		return c.FormatNumber(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// pluralCount returns the plural operand for arg, nil when arg is not a
// number. Floats go in as decimal strings so 1.5 is not "one".
func pluralCount(arg any) any {
	switch v := arg.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int64:
		return v
	}
	return nil
}

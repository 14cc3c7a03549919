package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		tag  language.Tag
		want language.Tag
	}{
		{name: "english", tag: language.English, want: language.English},
		{name: "us english", tag: language.AmericanEnglish, want: language.English},
		{name: "german", tag: language.German, want: language.German},
		{name: "austrian german", tag: language.MustParse("de-AT"), want: language.German},
		{name: "unknown falls back to english", tag: language.Swahili, want: language.English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Lookup(tt.tag)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if c.Tag() != tt.want {
				t.Errorf("Lookup(%v).Tag() = %v, want %v", tt.tag, c.Tag(), tt.want)
			}
		})
	}
}

func TestCatalog_Format(t *testing.T) {
	en := MustLookup(language.English)
	de := MustLookup(language.German)

	tests := []struct {
		name string
		c    *Catalog
		key  Key
		args []any
		want string
	}{
		{name: "zero seconds", c: en, key: UnitSecond, args: []any{0.0}, want: "0 sec"},
		{name: "fractional seconds", c: en, key: UnitSecond, args: []any{1.5}, want: "1.5 sec"},
		{name: "one day singular", c: en, key: UnitDay, args: []any{1.0}, want: "1 day"},
		{name: "fractional day plural", c: en, key: UnitDay, args: []any{1.5}, want: "1.5 days"},
		{name: "zero days plural", c: en, key: UnitDay, args: []any{0.0}, want: "0 days"},
		{name: "status label", c: en, key: StatusStable, want: "Stable"},
		{name: "template with int", c: en, key: TooltipBuildNumber, args: []any{42}, want: "Build #42"},
		{name: "german decimal comma", c: de, key: UnitDay, args: []any{1.5}, want: "1,5 Tage"},
		{name: "german singular", c: de, key: UnitYear, args: []any{1.0}, want: "1 Jahr"},
		{name: "german status", c: de, key: StatusFailed, want: "Fehlgeschlagen"},
		{name: "german plain unit with one", c: de, key: UnitSecond, args: []any{1.0}, want: "1 Sek."},
		{name: "build number one", c: en, key: TooltipBuildNumber, args: []any{1}, want: "Build #1"},
		{name: "german falls back to english", c: de, key: TimePM, want: "PM"},
		{name: "string argument", c: de, key: TooltipLasted, args: []any{"2 Min."}, want: "Dauer 2 Min."},
		{name: "unknown key renders key", c: en, key: Key("nope"), want: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Format(tt.key, tt.args...); got != tt.want {
				t.Errorf("Format(%s, %v) = %q, want %q", tt.key, tt.args, got, tt.want)
			}
		})
	}
}

func TestCatalog_FallbackMarkers(t *testing.T) {
	de := MustLookup(language.German)

	// German bundle has no AM/PM markers, English is used.
	if de.AM() != "AM" || de.PM() != "PM" {
		t.Errorf("AM/PM = %q/%q, want AM/PM", de.AM(), de.PM())
	}
}

func TestCatalog_FormatNumber(t *testing.T) {
	en := MustLookup(language.English)
	de := MustLookup(language.German)

	tests := []struct {
		name string
		c    *Catalog
		v    float64
		want string
	}{
		{name: "integer", c: en, v: 2, want: "2"},
		{name: "one decimal", c: en, v: 1.5, want: "1.5"},
		{name: "two decimals", c: en, v: 0.45, want: "0.45"},
		{name: "no grouping", c: en, v: 1234.5, want: "1234.5"},
		{name: "german comma", c: de, v: 1.5, want: "1,5"},
		{name: "german integer", c: de, v: 10, want: "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.FormatNumber(tt.v); got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

package timefmt

import (
	"strings"
	"time"

	"github.com/vjeantet/jodaTime"
)

// Pattern is a date/time pattern in Joda letters, e.g. "M/d/yy h:mm a" or
// "dd.MM.yyyy". The day period letter 'a' renders the catalog's markers
// instead of jodaTime's English AM/PM.
type Pattern string

// Format renders t. am and pm are the day-period markers for the 'a' letter.
func (p Pattern) Format(t time.Time, am, pm string) string {
	marker := am
	if t.Hour() >= 12 {
		marker = pm
	}
	return jodaTime.Format(withDayPeriod(string(p), marker), t)
}

// withDayPeriod replaces unquoted runs of 'a' in p with marker as quoted text.
func withDayPeriod(p, marker string) string {
	if !strings.ContainsRune(p, 'a') {
		return p
	}
	quoted := ""
	if marker != "" {
		quoted = "'" + strings.ReplaceAll(marker, "'", "''") + "'"
	}

	var b strings.Builder
	inQuote := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == 'a' && !inQuote:
			for i+1 < len(p) && p[i+1] == 'a' {
				i++
			}
			b.WriteString(quoted)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// forceFourDigitYear widens a two-digit year field so years are unambiguous.
func forceFourDigitYear(p string) string {
	if strings.Contains(p, "yyyy") {
		return p
	}
	return strings.ReplaceAll(p, "yy", "yyyy")
}

// Package timefmt renders build times for the status column: coarse relative
// "time ago" strings and locale-specific absolute dates.
package timefmt

import (
	"math"
	"math/big"
	"time"

	"github.com/caevv/compactcols/internal/i18n"
)

const (
	oneSecondMs = 1000
	oneMinuteMs = 60 * oneSecondMs
	oneHourMs   = 60 * oneMinuteMs
	oneDayMs    = 24 * oneHourMs
	oneMonthMs  = 30 * oneDayMs
	oneYearMs   = 365 * oneDayMs

	// OneDay is the unit used for age cutoffs.
	OneDay = oneDayMs * time.Millisecond
)

var buckets = []struct {
	ms  float64
	key i18n.Key
}{
	{oneYearMs, i18n.UnitYear},
	{oneMonthMs, i18n.UnitMonth},
	{oneDayMs, i18n.UnitDay},
	{oneHourMs, i18n.UnitHour},
	{oneMinuteMs, i18n.UnitMinute},
	{oneSecondMs, i18n.UnitSecond},
}

// Relative renders elapsed time in the largest unit it reaches, as "2.1 days"
// rather than "2 days 3 hours". Below ten units one decimal is kept, from ten
// on none. Anything under a second is "0 sec".
//
// The quotient is taken in single precision, so 1.05 minutes is the float32
// 1.0499999... and rounds to "1 min", not "1.1 min".
func Relative(c *i18n.Catalog, elapsed time.Duration) string {
	ms := float64(elapsed) / float64(time.Millisecond)
	for _, b := range buckets {
		if ms >= b.ms {
			q := float32(ms) / float32(b.ms)
			return c.Format(b.key, roundedNumber(float64(q)))
		}
	}
	return c.Format(i18n.UnitSecond, 0.0)
}

func roundedNumber(v float64) float64 {
	if v >= 10 {
		return roundHalfDown(v, 0)
	}
	return roundHalfDown(v, 1)
}

// roundHalfDown rounds the exact binary value of v to scale decimals, with
// ties going toward zero: 10.5 -> 10, 1.25 -> 1.2, 1.251 -> 1.3.
func roundHalfDown(v float64, scale int) float64 {
	if v < 0 {
		return -roundHalfDown(-v, scale)
	}
	const prec = 256

	factor := math.Pow10(scale)
	x := new(big.Float).SetPrec(prec).SetFloat64(v)
	x.Mul(x, new(big.Float).SetPrec(prec).SetFloat64(factor))

	whole, _ := x.Int(nil)
	frac := new(big.Float).SetPrec(prec).Sub(x, new(big.Float).SetPrec(prec).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) > 0 {
		whole.Add(whole, big.NewInt(1))
	}

	r, _ := new(big.Float).SetInt(whole).Float64()
	return r / factor
}

// Span renders a duration with up to two units, e.g. "1 hr 2 min", "2.3 sec"
// or "45 ms". The smaller unit is dropped once the larger one reaches ten.
func Span(c *i18n.Catalog, d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	years := ms / oneYearMs
	ms %= oneYearMs
	days := ms / oneDayMs
	ms %= oneDayMs
	hours := ms / oneHourMs
	ms %= oneHourMs
	minutes := ms / oneMinuteMs
	ms %= oneMinuteMs
	seconds := ms / oneSecondMs
	millis := ms % oneSecondMs

	switch {
	case years > 0:
		return spanPair(c, years, i18n.UnitYear, days, i18n.UnitDay)
	case days > 0:
		return spanPair(c, days, i18n.UnitDay, hours, i18n.UnitHour)
	case hours > 0:
		return spanPair(c, hours, i18n.UnitHour, minutes, i18n.UnitMinute)
	case minutes > 0:
		return spanPair(c, minutes, i18n.UnitMinute, seconds, i18n.UnitSecond)
	case seconds >= 10:
		return c.Format(i18n.UnitSecond, float64(seconds))
	case seconds >= 1:
		return c.Format(i18n.UnitSecond, float64(seconds)+float64(millis/100)/10)
	case millis >= 100:
		return c.Format(i18n.UnitSecond, float64(millis/10)/100)
	default:
		return c.Format(i18n.UnitMillisecond, float64(millis))
	}
}

func spanPair(c *i18n.Catalog, major int64, majorKey i18n.Key, minor int64, minorKey i18n.Key) string {
	text := c.Format(majorKey, float64(major))
	if major < 10 {
		text += " " + c.Format(minorKey, float64(minor))
	}
	return text
}

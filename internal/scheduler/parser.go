package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// Five or six fields, plus descriptors such as @daily and @every 5m.
	cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	intervalRegex = regexp.MustCompile(`^every\s+(\d+)\s*([a-z]+)$`)

	intervalUnits = map[string]time.Duration{
		"s": time.Second, "sec": time.Second, "second": time.Second, "seconds": time.Second,
		"m": time.Minute, "min": time.Minute, "minute": time.Minute, "minutes": time.Minute,
		"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
		"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	}
)

const maxInterval = 365 * 24 * time.Hour

// ParseSchedule parses a job schedule. Accepted forms are cron expressions
// with an optional seconds field ("0 2 * * *"), descriptors ("@hourly",
// "@every 90s") and intervals such as "every 5m" or "every 2 hours".
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("schedule expression cannot be empty")
	}

	if strings.HasPrefix(strings.ToLower(expr), "every ") {
		d, err := parseInterval(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid interval expression %q: %w", expr, err)
		}
		return cron.Every(d), nil
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

func parseInterval(expr string) (time.Duration, error) {
	matches := intervalRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(expr)))
	if len(matches) != 3 {
		return 0, fmt.Errorf("expected 'every <number> <unit>' (e.g., 'every 5m')")
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("interval must be a positive integer")
	}

	unit, ok := intervalUnits[matches[2]]
	if !ok {
		return 0, fmt.Errorf("unsupported time unit %q", matches[2])
	}

	d := time.Duration(value) * unit
	if d > maxInterval {
		return 0, fmt.Errorf("interval cannot exceed 1 year")
	}
	return d, nil
}

// ValidateSchedule reports whether expr would be accepted by AddJob.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr)
	return err
}

// NextRuns returns the next n activation times of expr after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	runs := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		from = schedule.Next(from)
		if from.IsZero() {
			break
		}
		runs = append(runs, from)
	}
	return runs, nil
}

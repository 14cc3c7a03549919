package scheduler

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 2 * * *", false},
		{"*/5 * * * *", false},
		{"30 */5 * * * *", false},
		{"@hourly", false},
		{"@every 90s", false},
		{"every 5m", false},
		{"every 2 hours", false},
		{"  Every 1 Day  ", false},
		{"", true},
		{"every", true},
		{"every 0m", true},
		{"every 5 fortnights", true},
		{"every 400 days", true},
		{"61 * * * *", true},
		{"@sometimes", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseSchedule(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err := ValidateSchedule(tt.expr); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestNextRuns(t *testing.T) {
	from := time.Date(2010, 6, 24, 14, 56, 8, 0, time.UTC)

	tests := []struct {
		expr string
		want []time.Time
	}{
		{
			expr: "0 2 * * *",
			want: []time.Time{
				time.Date(2010, 6, 25, 2, 0, 0, 0, time.UTC),
				time.Date(2010, 6, 26, 2, 0, 0, 0, time.UTC),
			},
		},
		{
			expr: "every 30m",
			want: []time.Time{
				time.Date(2010, 6, 24, 15, 26, 8, 0, time.UTC),
				time.Date(2010, 6, 24, 15, 56, 8, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := NextRuns(tt.expr, from, 2)
			if err != nil {
				t.Fatalf("NextRuns() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NextRuns() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := NextRuns("nope", from, 1); err == nil {
		t.Error("NextRuns() with invalid schedule should fail")
	}
}

package column

import (
	"sort"
	"time"

	"github.com/caevv/compactcols/internal/timefmt"
)

// Select orders candidates newest first, applies the day cutoff and the
// only-last-status rule, sets the display flags and formats the time of each
// record that survives. Candidates are copied, never modified, so calling
// Select twice with the same input and now gives the same result.
func Select(candidates []*Record, p Policy, now time.Time, f *timefmt.Formatter) []*Record {
	sorted := make([]*Record, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Build.Number > sorted[j].Build.Number
	})

	maxAge := time.Duration(p.HideBuildsOlderThanDays) * timefmt.OneDay

	var kept []*Record
	for _, r := range sorted {
		show := p.HideBuildsOlderThanDays <= 0 || now.Sub(r.BuildTime()) <= maxAge
		if len(kept) > 0 && !show {
			continue
		}
		rec := *r
		kept = append(kept, &rec)
		if p.OnlyShowLastStatus {
			break
		}
	}

	for i, r := range kept {
		r.First = i == 0
		r.MultipleBuilds = len(kept) > 1
		r.TimeAgo = f.TimeAgo(r.BuildTime(), now, p.TimeMode, r.MultipleBuilds)
	}
	return kept
}

package column

import (
	"strconv"

	"github.com/caevv/compactcols/internal/history"
	"github.com/caevv/compactcols/internal/i18n"
)

// Scan extracts the candidate records of h: the last failed, last unstable
// and last stable builds, subject to the policy's only-if-last rules. When
// none of those exist the newest aborted build is used instead. The result
// is unsorted and holds at most one record per category.
func Scan(h history.History, p Policy, c *i18n.Catalog) []*Record {
	lastCompleted := h.LastCompleted()
	latest := lastCompleted
	if latest == nil {
		latest = h.Last()
	}

	newRecord := func(b *history.Build, cat Category, urlPart string) *Record {
		r := &Record{
			Build:       b,
			Category:    cat,
			Color:       cat.Color(),
			Status:      c.Format(categoryStyles[cat].label),
			URLPart:     urlPart,
			LatestBuild: latest != nil && b.Number == latest.Number,
		}
		if p.ShowColorblindHint {
			r.Underline = cat.Underline()
		}
		return r
	}

	var records []*Record

	if b := h.LastFailed(); b != nil && (!p.FailedOnlyIfLast || isLastCompleted(b, lastCompleted)) {
		records = append(records, newRecord(b, CategoryFailed, "lastFailedBuild"))
	}
	if b := h.LastUnstable(); b != nil && (!p.UnstableOnlyIfLast || isLastCompleted(b, lastCompleted)) {
		records = append(records, newRecord(b, CategoryUnstable, strconv.Itoa(b.Number)))
	}
	if b := h.LastStable(); b != nil {
		records = append(records, newRecord(b, CategoryStable, "lastStableBuild"))
	}

	if len(records) == 0 {
		if b := lastAborted(h); b != nil {
			records = append(records, newRecord(b, CategoryAborted, strconv.Itoa(b.Number)))
		}
	}
	return records
}

func isLastCompleted(b, lastCompleted *history.Build) bool {
	return lastCompleted != nil && lastCompleted.Number == b.Number
}

func lastAborted(h history.History) *history.Build {
	for b := h.Last(); b != nil; b = h.Previous(b) {
		if b.Result == history.ResultAborted {
			return b
		}
	}
	return nil
}

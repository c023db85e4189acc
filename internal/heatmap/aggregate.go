// Package heatmap turns stored activity events into daily summaries and
// renders them as an embeddable SVG calendar grid.
package heatmap

import (
	"time"

	"github.com/whalemap/whalemap/internal/model"
)

const dayFormat = "2006-01-02"

// Summarize collapses raw events into a gap-free daily series covering
// [from, to] inclusive, ascending. Every calendar day in the window gets
// exactly one entry; days without events carry zero counts and level 0.
//
// Levels are relative to the window's own busiest day, so the same count
// can map to different levels when the window changes. That is the
// intended scale, not something to normalize away.
func Summarize(events []*model.ActivityEvent, from, to time.Time) []model.ActivitySummary {
	from = model.DayUTC(from)
	to = model.DayUTC(to)
	if to.Before(from) {
		return nil
	}

	byDay := make(map[string]*model.ActivitySummary)
	maxCount := 0
	for _, e := range events {
		day := model.DayUTC(e.Day)
		if day.Before(from) || day.After(to) {
			continue
		}
		key := day.Format(dayFormat)
		s := byDay[key]
		if s == nil {
			s = &model.ActivitySummary{Date: key}
			byDay[key] = s
		}
		s.TotalCount += e.Count
		switch e.Kind {
		case model.EventPush:
			s.Pushes += e.Count
		case model.EventPull:
			s.Pulls += e.Count
		case model.EventBuild:
			s.Builds += e.Count
		}
		if s.TotalCount > maxCount {
			maxCount = s.TotalCount
		}
	}

	n := int(to.Sub(from).Hours()/24) + 1
	out := make([]model.ActivitySummary, 0, n)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		s := model.ActivitySummary{Date: d.Format(dayFormat)}
		if agg, ok := byDay[s.Date]; ok {
			s = *agg
			s.Level = levelFor(s.TotalCount, maxCount)
		}
		out = append(out, s)
	}
	return out
}

// levelFor buckets a day's count against the window maximum. Thresholds
// are exclusive: a ratio of exactly 0.5 lands in the lower bucket.
func levelFor(count, maxCount int) int {
	if count == 0 || maxCount == 0 {
		return 0
	}
	ratio := float64(count) / float64(maxCount)
	switch {
	case ratio > 0.75:
		return 4
	case ratio > 0.5:
		return 3
	case ratio > 0.25:
		return 2
	default:
		return 1
	}
}

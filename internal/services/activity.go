package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/whalemap/whalemap/internal/heatmap"
	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/store"
)

// ActivityTotals sums a series by kind.
type ActivityTotals struct {
	Activities int `json:"activities"`
	Pushes     int `json:"pushes"`
	Pulls      int `json:"pulls"`
	Builds     int `json:"builds"`
}

// ActivityReport is the JSON document served for one username's window.
type ActivityReport struct {
	Username string                  `json:"username"`
	Days     int                     `json:"days"`
	Totals   ActivityTotals          `json:"totals"`
	Activity []model.ActivitySummary `json:"activity"`
}

// ActivityService serves the public read path: daily series and rendered
// images for a Docker Hub username.
type ActivityService struct {
	store store.Store
	log   zerolog.Logger

	// now is swapped in tests to pin the window.
	now func() time.Time
}

func NewActivityService(st store.Store, log zerolog.Logger) *ActivityService {
	return &ActivityService{store: st, log: log, now: time.Now}
}

// Series returns the gap-free daily summary for the trailing window of
// the given length, ending today (UTC).
func (s *ActivityService) Series(ctx context.Context, dockerUsername string, days int) (*ActivityReport, error) {
	if days < heatmap.MinDays || days > heatmap.MaxDays {
		return nil, fmt.Errorf("%w: days must be between %d and %d",
			model.ErrValidation, heatmap.MinDays, heatmap.MaxDays)
	}
	account, err := s.store.Accounts().GetByUsername(ctx, dockerUsername)
	if err != nil {
		return nil, err
	}

	to := model.DayUTC(s.now())
	from := to.AddDate(0, 0, -(days - 1))
	events, err := s.store.Events().ListForAccount(ctx, account.ID, from, to)
	if err != nil {
		return nil, err
	}

	series := heatmap.Summarize(events, from, to)
	report := &ActivityReport{
		Username: dockerUsername,
		Days:     days,
		Activity: series,
	}
	for _, day := range series {
		report.Totals.Activities += day.TotalCount
		report.Totals.Pushes += day.Pushes
		report.Totals.Pulls += day.Pulls
		report.Totals.Builds += day.Builds
	}
	return report, nil
}

// Render produces the SVG heatmap for the username with the given options.
func (s *ActivityService) Render(ctx context.Context, dockerUsername string, opts heatmap.Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	report, err := s.Series(ctx, dockerUsername, opts.Days)
	if err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = dockerUsername + " on Docker Hub"
	}
	return heatmap.Render(report.Activity, opts)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/whalemap/whalemap/internal/heatmap"
	"github.com/whalemap/whalemap/internal/model"
)

func newActivityService(env *testEnv, now time.Time) *ActivityService {
	svc := NewActivityService(env.store, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

// upsertN records the same observation n times, leaving count == n.
func upsertN(t *testing.T, env *testEnv, accountID string, day time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := env.store.Events().Upsert(context.Background(), eventReq(accountID, day))
		require.NoError(t, err)
	}
}

func TestSeriesThreeDayWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.seedAccount(t, "u1", "alice")

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	upsertN(t, env, account.ID, d1, 5)
	upsertN(t, env, account.ID, d3, 10)

	svc := newActivityService(env, time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC))
	report, err := svc.Series(ctx, "alice", 3)
	require.NoError(t, err)

	require.Equal(t, "alice", report.Username)
	require.Equal(t, 3, report.Days)
	require.Len(t, report.Activity, 3)

	require.Equal(t, []int{5, 0, 10}, []int{
		report.Activity[0].TotalCount,
		report.Activity[1].TotalCount,
		report.Activity[2].TotalCount,
	})
	require.Equal(t, []int{2, 0, 4}, []int{
		report.Activity[0].Level,
		report.Activity[1].Level,
		report.Activity[2].Level,
	})

	require.Equal(t, 15, report.Totals.Activities)
	require.Equal(t, 15, report.Totals.Pushes)
	require.Zero(t, report.Totals.Pulls)
	require.Zero(t, report.Totals.Builds)
}

func TestSeriesUnknownUsername(t *testing.T) {
	env := newTestEnv(t)
	svc := newActivityService(env, time.Now())
	_, err := svc.Series(context.Background(), "ghost", 30)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSeriesRejectsBadWindow(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "u1", "alice")
	svc := newActivityService(env, time.Now())

	_, err := svc.Series(context.Background(), "alice", 0)
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.Series(context.Background(), "alice", 366)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestSeriesCoversWholeWindowWithoutEvents(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "u1", "alice")
	svc := newActivityService(env, time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC))

	report, err := svc.Series(context.Background(), "alice", 30)
	require.NoError(t, err)
	require.Len(t, report.Activity, 30)
	require.Equal(t, "2024-06-01", report.Activity[0].Date)
	require.Equal(t, "2024-06-30", report.Activity[29].Date)
	require.Zero(t, report.Totals.Activities)
}

func TestRenderDefaultsTitleToUsername(t *testing.T) {
	env := newTestEnv(t)
	account := env.seedAccount(t, "u1", "alice")
	upsertN(t, env, account.ID, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2)

	svc := newActivityService(env, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	opts := heatmap.DefaultOptions()
	opts.Days = 7

	out, err := svc.Render(context.Background(), "alice", opts)
	require.NoError(t, err)
	require.Contains(t, string(out), "alice on Docker Hub")
}

func TestRenderRejectsInvalidOptions(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "u1", "alice")
	svc := newActivityService(env, time.Now())

	opts := heatmap.DefaultOptions()
	opts.Theme = "no-such-theme"
	_, err := svc.Render(context.Background(), "alice", opts)
	require.ErrorIs(t, err, model.ErrValidation)
}

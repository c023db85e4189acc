package heatmap

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whalemap/whalemap/internal/model"
)

func sampleSeries(t *testing.T, days int) []model.ActivitySummary {
	t.Helper()
	events := []*model.ActivityEvent{
		pushEvent("2024-06-01", 4),
		pushEvent("2024-06-03", 8),
	}
	return Summarize(events, day("2024-06-01"), day("2024-06-01").AddDate(0, 0, days-1))
}

func TestRenderDeterministic(t *testing.T) {
	series := sampleSeries(t, 30)
	opts := DefaultOptions()
	opts.Days = 30

	first, err := Render(series, opts)
	require.NoError(t, err)
	second, err := Render(series, opts)
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second))
}

func TestRenderGridGeometry(t *testing.T) {
	series := sampleSeries(t, 8)
	opts := DefaultOptions()
	opts.Days = 8
	opts.HideLegend = true
	opts.HideTotal = true
	opts.HideLabels = true

	out, err := Render(series, opts)
	require.NoError(t, err)
	svg := string(out)

	// Background plus one cell per day, nothing else.
	require.Equal(t, 9, strings.Count(svg, "<rect"))

	// Entry 7 wraps to the second column, back at the top row.
	step := opts.CellSize + cellGap
	require.Contains(t, svg, `x="`+strconv.Itoa(10+step)+`" y="28"`)
}

func TestRenderEscapesTitle(t *testing.T) {
	series := sampleSeries(t, 3)
	opts := DefaultOptions()
	opts.Days = 3
	opts.Title = `<script>alert("x")</script>`

	out, err := Render(series, opts)
	require.NoError(t, err)
	svg := string(out)
	require.NotContains(t, svg, "<script>")
	require.Contains(t, svg, "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;")
}

func TestRenderCustomPalette(t *testing.T) {
	series := sampleSeries(t, 3)
	opts := DefaultOptions()
	opts.Days = 3
	opts.Theme = ThemeCustom
	opts.CustomColors = []string{"#111111", "#222222", "#333333", "#444444", "#555555"}
	opts.BgColor = "#0a0a0a"
	opts.TextColor = "#fafafa"

	out, err := Render(series, opts)
	require.NoError(t, err)
	svg := string(out)
	require.Contains(t, svg, `fill="#0a0a0a"`)
	require.Contains(t, svg, `fill="#555555"`)
}

func TestRenderHideToggles(t *testing.T) {
	series := sampleSeries(t, 14)
	opts := DefaultOptions()
	opts.Days = 14
	opts.HideLegend = true
	opts.HideTotal = true
	opts.HideLabels = true

	out, err := Render(series, opts)
	require.NoError(t, err)
	svg := string(out)
	require.NotContains(t, svg, "Less")
	require.NotContains(t, svg, "More")
	require.NotContains(t, svg, "activities in the last")
	require.NotContains(t, svg, "Mon")
}

func TestRenderRejectsBadOptions(t *testing.T) {
	series := sampleSeries(t, 3)

	opts := DefaultOptions()
	opts.Days = 0
	_, err := Render(series, opts)
	require.ErrorIs(t, err, model.ErrValidation)

	opts = DefaultOptions()
	opts.Theme = "neon-zebra"
	_, err = Render(series, opts)
	require.ErrorIs(t, err, model.ErrValidation)

	opts = DefaultOptions()
	opts.CustomColors = []string{"#111111", "#222222"}
	_, err = Render(series, opts)
	require.ErrorIs(t, err, model.ErrValidation)

	opts = DefaultOptions()
	opts.CellSize = 50
	_, err = Render(series, opts)
	require.ErrorIs(t, err, model.ErrValidation)
}

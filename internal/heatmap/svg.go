package heatmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/whalemap/whalemap/internal/model"
)

const cellGap = 2

// defaultTitle heads the image when no override is supplied.
const defaultTitle = "Docker Hub Activity"

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Render draws the series as a calendar grid: 7 rows, one column per
// week, filled column-major so entry i lands at row i%7, column i/7.
// The output is deterministic; identical inputs produce identical bytes.
func Render(series []model.ActivitySummary, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cell := opts.CellSize
	step := cell + cellGap
	cols := (len(series) + 6) / 7

	leftGutter := 10
	if !opts.HideLabels {
		leftGutter = 34
	}
	top := 28
	if !opts.HideLabels {
		top += 14
	}
	footer := 12
	if !opts.HideLegend || !opts.HideTotal {
		footer = 30
	}
	width := leftGutter + cols*step + 10
	if minW := leftGutter + 5*step + 200; (!opts.HideLegend || !opts.HideTotal) && width < minW {
		width = minW
	}
	height := top + 7*step + footer

	bg, text, colors := opts.palette()

	title := opts.Title
	if title == "" {
		title = defaultTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, width, height, bg)
	fmt.Fprintf(&b, `<text x="10" y="18" fill="%s" font-family="-apple-system,Segoe UI,Helvetica,Arial,sans-serif" font-size="13" font-weight="600">%s</text>`,
		text, textEscaper.Replace(title))

	if !opts.HideLabels {
		writeMonthLabels(&b, series, leftGutter, top-4, step, text)
		writeDayLabels(&b, series, top, cell, step, text)
	}

	for i, s := range series {
		x := leftGutter + (i/7)*step
		y := top + (i%7)*step
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="%d" fill="%s"><title>%s: %d activities</title></rect>`,
			x, y, cell, cell, opts.CellRadius, colors[s.Level], s.Date, s.TotalCount)
	}

	baseline := top + 7*step + 16
	if !opts.HideTotal {
		total := 0
		for _, s := range series {
			total += s.TotalCount
		}
		fmt.Fprintf(&b, `<text x="10" y="%d" fill="%s" font-family="-apple-system,Segoe UI,Helvetica,Arial,sans-serif" font-size="11">%d activities in the last %d days</text>`,
			baseline, text, total, len(series))
	}
	if !opts.HideLegend {
		legendX := width - 10 - 5*step - 58
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="%s" font-family="-apple-system,Segoe UI,Helvetica,Arial,sans-serif" font-size="10">Less</text>`,
			legendX-28, baseline, text)
		for lv := 0; lv < 5; lv++ {
			fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" rx="%d" fill="%s"/>`,
				legendX+lv*step, baseline-cell+2, cell, cell, opts.CellRadius, colors[lv])
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="%s" font-family="-apple-system,Segoe UI,Helvetica,Arial,sans-serif" font-size="10">More</text>`,
			legendX+5*step+6, baseline, text)
	}

	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}

// writeMonthLabels marks each column whose top cell starts a new month.
func writeMonthLabels(b *strings.Builder, series []model.ActivitySummary, leftGutter, y, step int, color string) {
	prev := time.Month(0)
	for c := 0; c*7 < len(series); c++ {
		d, err := time.Parse(dayFormat, series[c*7].Date)
		if err != nil {
			continue
		}
		if d.Month() == prev {
			continue
		}
		prev = d.Month()
		fmt.Fprintf(b, `<text x="%d" y="%d" fill="%s" font-family="-apple-system,Segoe UI,Helvetica,Arial,sans-serif" font-size="9">%s</text>`,
			leftGutter+c*step, y, color, d.Month().String()[:3])
	}
}

// writeDayLabels names rows 1, 3 and 5. Column-major fill keeps every
// row on a single weekday, so the first column's dates name the rows.
func writeDayLabels(b *strings.Builder, series []model.ActivitySummary, top, cell, step int, color string) {
	for _, row := range []int{1, 3, 5} {
		if row >= len(series) {
			break
		}
		d, err := time.Parse(dayFormat, series[row].Date)
		if err != nil {
			continue
		}
		fmt.Fprintf(b, `<text x="8" y="%d" fill="%s" font-family="-apple-system,Segoe UI,Helvetica,Arial,sans-serif" font-size="9">%s</text>`,
			top+row*step+cell-2, color, d.Weekday().String()[:3])
	}
}

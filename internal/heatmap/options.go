package heatmap

import (
	"fmt"

	"github.com/whalemap/whalemap/internal/model"
)

// Bounds for render options. Out-of-range values are rejected, not clamped.
const (
	MinDays = 1
	MaxDays = 365

	MinCellSize = 5
	MaxCellSize = 20

	MinCellRadius = 0
	MaxCellRadius = 10
)

// Options configures one render. Zero values mean "use the default";
// callers that parse query strings should start from DefaultOptions and
// overwrite only the fields the request supplies.
type Options struct {
	Theme      string
	Days       int
	CellSize   int
	CellRadius int

	HideLegend bool
	HideTotal  bool
	HideLabels bool

	// Title replaces the default heading. Escaped before embedding.
	Title string

	// BgColor and TextColor override the theme's chrome colors.
	BgColor   string
	TextColor string

	// CustomColors is honored only when exactly five are supplied,
	// which also forces Theme to "custom".
	CustomColors []string
}

// DefaultOptions mirrors the documented endpoint defaults.
func DefaultOptions() Options {
	return Options{
		Theme:      DefaultTheme,
		Days:       MaxDays,
		CellSize:   11,
		CellRadius: 2,
	}
}

// Validate rejects anything outside the documented bounds before any
// rendering work happens.
func (o Options) Validate() error {
	if o.Days < MinDays || o.Days > MaxDays {
		return fmt.Errorf("%w: days must be between %d and %d", model.ErrValidation, MinDays, MaxDays)
	}
	if o.CellSize < MinCellSize || o.CellSize > MaxCellSize {
		return fmt.Errorf("%w: cell_size must be between %d and %d", model.ErrValidation, MinCellSize, MaxCellSize)
	}
	if o.CellRadius < MinCellRadius || o.CellRadius > MaxCellRadius {
		return fmt.Errorf("%w: radius must be between %d and %d", model.ErrValidation, MinCellRadius, MaxCellRadius)
	}
	if o.Theme != ThemeCustom {
		if _, ok := Themes[o.Theme]; !ok {
			return fmt.Errorf("%w: unknown theme %q", model.ErrValidation, o.Theme)
		}
	}
	if n := len(o.CustomColors); n != 0 && n != 5 {
		return fmt.Errorf("%w: custom palette needs exactly 5 colors, got %d", model.ErrValidation, n)
	}
	return nil
}

// palette resolves the effective colors. A custom theme without a full
// palette falls back to the default table entry; explicit background and
// text overrides always win.
func (o Options) palette() (bg, text string, colors [5]string) {
	th, ok := Themes[o.Theme]
	if !ok {
		th = Themes[DefaultTheme]
	}
	bg, text, colors = th.BgColor, th.TextColor, th.Colors
	if o.Theme == ThemeCustom && len(o.CustomColors) == 5 {
		copy(colors[:], o.CustomColors)
	}
	if o.BgColor != "" {
		bg = o.BgColor
	}
	if o.TextColor != "" {
		text = o.TextColor
	}
	return bg, text, colors
}

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/whalemap/whalemap/internal/heatmap"
	"github.com/whalemap/whalemap/internal/platform/httpx"
	"github.com/whalemap/whalemap/internal/services"
)

// cacheControl lets proxies and GitHub's camo cache rendered output.
const cacheControl = "public, max-age=7200"

// HeatmapHandler exposes the public read path: activity JSON, rendered
// SVG and the theme catalog. No authentication; heatmaps are meant to be
// embedded in READMEs.
type HeatmapHandler struct {
	activity *services.ActivityService
}

func NewHeatmapHandler(activity *services.ActivityService) *HeatmapHandler {
	return &HeatmapHandler{activity: activity}
}

// ActivityJSON GET /api/heatmap/{username}.json
func (h *HeatmapHandler) ActivityJSON(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSuffix(mux.Vars(r)["username"], ".json")
	if username == "" {
		httpx.WriteBadRequest(w, "Username is required")
		return
	}

	days := heatmap.MaxDays
	if d := r.URL.Query().Get("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed >= heatmap.MinDays && parsed <= heatmap.MaxDays {
			days = parsed
		}
	}

	report, err := h.activity.Series(r.Context(), username, days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", cacheControl)
	httpx.WriteJSON(w, http.StatusOK, report)
}

// RenderSVG GET /api/heatmap/{username}.svg
func (h *HeatmapHandler) RenderSVG(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSuffix(mux.Vars(r)["username"], ".svg")
	if username == "" {
		httpx.WriteBadRequest(w, "Username is required")
		return
	}

	opts := optionsFromQuery(r)
	out, err := h.activity.Render(r.Context(), username, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", cacheControl)
	_, _ = w.Write(out)
}

// Themes GET /api/heatmap/themes
func (h *HeatmapHandler) Themes(w http.ResponseWriter, r *http.Request) {
	themes := make([]map[string]interface{}, 0, len(heatmap.ThemeOrder))
	for _, id := range heatmap.ThemeOrder {
		theme, ok := heatmap.Themes[id]
		if !ok {
			continue
		}
		themes = append(themes, map[string]interface{}{
			"id":         id,
			"name":       theme.Name,
			"bg_color":   theme.BgColor,
			"text_color": theme.TextColor,
			"colors":     theme.Colors,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"themes": themes,
		"customization": map[string]interface{}{
			"description": "Custom themes are built from query parameters",
			"params": map[string]string{
				"bg_color":   "Background color (hex without #)",
				"text_color": "Text color (hex without #)",
				"color0":     "Level 0 (no activity) color",
				"color1":     "Level 1 (low) color",
				"color2":     "Level 2 (medium) color",
				"color3":     "Level 3 (high) color",
				"color4":     "Level 4 (max) color",
			},
			"example": "/api/heatmap/username.svg?theme=custom&bg_color=1a1a2e&color0=16213e&color1=0f3460&color2=533483&color3=e94560&color4=ff6b6b",
		},
	})
}

// optionsFromQuery builds render options from query parameters. Numeric
// values outside the documented bounds are ignored rather than rejected,
// keeping embedded image URLs forgiving.
func optionsFromQuery(r *http.Request) heatmap.Options {
	q := r.URL.Query()
	opts := heatmap.DefaultOptions()

	if theme := q.Get("theme"); theme != "" {
		opts.Theme = theme
	}
	opts.HideLegend = boolParam(q.Get("hide_legend"))
	opts.HideTotal = boolParam(q.Get("hide_total"))
	opts.HideLabels = boolParam(q.Get("hide_labels"))
	opts.Title = q.Get("title")

	if d := q.Get("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed >= heatmap.MinDays && parsed <= heatmap.MaxDays {
			opts.Days = parsed
		}
	}
	if cs := q.Get("cell_size"); cs != "" {
		if parsed, err := strconv.Atoi(cs); err == nil && parsed >= heatmap.MinCellSize && parsed <= heatmap.MaxCellSize {
			opts.CellSize = parsed
		}
	}
	if cr := q.Get("radius"); cr != "" {
		if parsed, err := strconv.Atoi(cr); err == nil && parsed >= heatmap.MinCellRadius && parsed <= heatmap.MaxCellRadius {
			opts.CellRadius = parsed
		}
	}

	if bg := q.Get("bg_color"); bg != "" {
		opts.BgColor = hexColor(bg)
	}
	if txt := q.Get("text_color"); txt != "" {
		opts.TextColor = hexColor(txt)
	}

	custom := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		if c := q.Get(fmt.Sprintf("color%d", i)); c != "" {
			custom = append(custom, hexColor(c))
		}
	}
	if len(custom) == 5 {
		opts.CustomColors = custom
		opts.Theme = heatmap.ThemeCustom
	}
	return opts
}

func boolParam(v string) bool {
	return v == "true" || v == "1"
}

func hexColor(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || strings.HasPrefix(c, "#") {
		return c
	}
	return "#" + c
}

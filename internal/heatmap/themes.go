package heatmap

// Theme is a named five-step palette plus chrome colors. Colors run from
// level 0 (quietest) to level 4 (busiest).
type Theme struct {
	Name      string    `json:"name"`
	BgColor   string    `json:"bg_color"`
	TextColor string    `json:"text_color"`
	Colors    [5]string `json:"colors"`
}

// ThemeCustom selects the caller-supplied palette instead of a table entry.
const ThemeCustom = "custom"

// DefaultTheme is used when the caller does not pick one.
const DefaultTheme = "github"

// ThemeOrder fixes the presentation order for the theme listing endpoint.
var ThemeOrder = []string{
	"github", "github-light", "docker",
	"dracula", "nord", "monokai", "one-dark", "tokyo-night", "catppuccin",
	"ocean", "sunset", "forest", "purple", "rose",
	"minimal", "minimal-dark",
}

// Themes is the built-in palette table.
var Themes = map[string]Theme{
	"github": {
		Name:      "GitHub Dark",
		BgColor:   "#0d1117",
		TextColor: "#c9d1d9",
		Colors:    [5]string{"#161b22", "#0e4429", "#006d32", "#26a641", "#39d353"},
	},
	"github-light": {
		Name:      "GitHub Light",
		BgColor:   "#ffffff",
		TextColor: "#24292f",
		Colors:    [5]string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"},
	},
	"docker": {
		Name:      "Docker Blue",
		BgColor:   "#001e3c",
		TextColor: "#e3f2fd",
		Colors:    [5]string{"#0a2a4d", "#0d4f8b", "#1d75c4", "#2496ed", "#64b5f6"},
	},
	"dracula": {
		Name:      "Dracula",
		BgColor:   "#282a36",
		TextColor: "#f8f8f2",
		Colors:    [5]string{"#44475a", "#6272a4", "#bd93f9", "#ff79c6", "#50fa7b"},
	},
	"nord": {
		Name:      "Nord",
		BgColor:   "#2e3440",
		TextColor: "#d8dee9",
		Colors:    [5]string{"#3b4252", "#4c566a", "#5e81ac", "#81a1c1", "#88c0d0"},
	},
	"monokai": {
		Name:      "Monokai",
		BgColor:   "#272822",
		TextColor: "#f8f8f2",
		Colors:    [5]string{"#3e3d32", "#5a5950", "#75715e", "#a6e22e", "#e6db74"},
	},
	"one-dark": {
		Name:      "One Dark",
		BgColor:   "#282c34",
		TextColor: "#abb2bf",
		Colors:    [5]string{"#3b4048", "#4b5263", "#56b6c2", "#61afef", "#98c379"},
	},
	"tokyo-night": {
		Name:      "Tokyo Night",
		BgColor:   "#1a1b26",
		TextColor: "#a9b1d6",
		Colors:    [5]string{"#24283b", "#414868", "#565f89", "#7aa2f7", "#bb9af7"},
	},
	"catppuccin": {
		Name:      "Catppuccin Mocha",
		BgColor:   "#1e1e2e",
		TextColor: "#cdd6f4",
		Colors:    [5]string{"#313244", "#45475a", "#585b70", "#cba6f7", "#f5c2e7"},
	},
	"ocean": {
		Name:      "Ocean",
		BgColor:   "#0f111a",
		TextColor: "#8f93a2",
		Colors:    [5]string{"#1f2233", "#29477d", "#3a6db5", "#4a90d9", "#89ddff"},
	},
	"sunset": {
		Name:      "Sunset",
		BgColor:   "#2d1b2e",
		TextColor: "#f9dcc4",
		Colors:    [5]string{"#3e2640", "#7d3c5c", "#b85c6e", "#e88873", "#ffb997"},
	},
	"forest": {
		Name:      "Forest",
		BgColor:   "#1a2f1a",
		TextColor: "#d4e6d4",
		Colors:    [5]string{"#243b24", "#2d5a2d", "#3e7c3e", "#57a457", "#7ccd7c"},
	},
	"purple": {
		Name:      "Purple Haze",
		BgColor:   "#1e1b2e",
		TextColor: "#d8d4ea",
		Colors:    [5]string{"#2a2640", "#453a73", "#6354a5", "#8a74d8", "#b39dff"},
	},
	"rose": {
		Name:      "Rose",
		BgColor:   "#2b1a22",
		TextColor: "#f2d5e0",
		Colors:    [5]string{"#3d2430", "#6b2e48", "#9e3d63", "#d15684", "#f77fa8"},
	},
	"minimal": {
		Name:      "Minimal Light",
		BgColor:   "#ffffff",
		TextColor: "#57606a",
		Colors:    [5]string{"#ebedf0", "#c6c9cc", "#9ea3a8", "#6e7681", "#424a53"},
	},
	"minimal-dark": {
		Name:      "Minimal Dark",
		BgColor:   "#161b22",
		TextColor: "#8b949e",
		Colors:    [5]string{"#21262d", "#30363d", "#484f58", "#6e7681", "#8b949e"},
	},
}

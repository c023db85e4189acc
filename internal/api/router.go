package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NewRouter wires all handlers onto their routes.
func NewRouter(accounts *AccountHandler, heatmaps *HeatmapHandler, health *HealthHandler, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(log))

	r.HandleFunc("/api/health", health.Health).Methods(http.MethodGet)

	r.HandleFunc("/api/docker/connect", accounts.Connect).Methods(http.MethodPost)
	r.HandleFunc("/api/docker/account", accounts.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/docker/account", accounts.Disconnect).Methods(http.MethodDelete)
	r.HandleFunc("/api/docker/sync", accounts.Sync).Methods(http.MethodPost)

	// The themes route must precede the username routes or "themes"
	// would be parsed as a username.
	r.HandleFunc("/api/heatmap/themes", heatmaps.Themes).Methods(http.MethodGet)
	r.HandleFunc("/api/heatmap/{username}.svg", heatmaps.RenderSVG).Methods(http.MethodGet)
	r.HandleFunc("/api/heatmap/{username}.json", heatmaps.ActivityJSON).Methods(http.MethodGet)
	r.HandleFunc("/api/heatmap/{username}", heatmaps.ActivityJSON).Methods(http.MethodGet)

	return r
}

func requestLogger(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

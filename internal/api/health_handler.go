package api

import (
	"net/http"

	"github.com/whalemap/whalemap/internal/platform/httpx"
	"github.com/whalemap/whalemap/internal/store"
)

// HealthHandler reports liveness and store reachability.
type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

// Health GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthPing(r.Context()); err != nil {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  "unreachable",
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

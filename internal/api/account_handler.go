// Package api is the HTTP transport over the services layer.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/whalemap/whalemap/internal/platform/httpx"
	"github.com/whalemap/whalemap/internal/services"
)

// userIDHeader carries the authenticated local user. Authentication
// itself happens upstream (gateway or session middleware); this service
// trusts the header.
const userIDHeader = "X-User-ID"

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// AccountHandler exposes the Docker account lifecycle.
type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type connectRequest struct {
	DockerUsername string `json:"docker_username"`
	AccessToken    string `json:"access_token"`
}

// Connect POST /api/docker/connect
func (h *AccountHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	account, err := h.accounts.Connect(r.Context(), userID, req.DockerUsername, req.AccessToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Docker account connected successfully",
		"account": map[string]interface{}{
			"id":              account.ID,
			"docker_username": account.DockerUsername,
			"is_active":       account.IsActive,
		},
	})
}

// Get GET /api/docker/account
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account": map[string]interface{}{
			"id":               account.ID,
			"docker_username":  account.DockerUsername,
			"is_active":        account.IsActive,
			"auto_refresh":     account.AutoRefresh,
			"sync_in_progress": account.SyncInProgress,
			"last_sync_at":     account.LastSyncAt,
			"last_sync_error":  account.LastSyncError,
		},
	})
}

// Disconnect DELETE /api/docker/account
func (h *AccountHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Disconnect(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Docker account disconnected successfully",
	})
}

// Sync POST /api/docker/sync
func (h *AccountHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.accounts.TriggerSync(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Sync started",
	})
}

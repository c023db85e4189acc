package api

import (
	"errors"
	"net/http"

	"github.com/whalemap/whalemap/internal/model"
	"github.com/whalemap/whalemap/internal/platform/httpx"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unclassified errors become an opaque 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		httpx.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		httpx.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrAuth):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrSyncInProgress):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		httpx.WriteInternalError(w, "internal error")
	}
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/whalemap/whalemap/internal/registry"
	"github.com/whalemap/whalemap/internal/services"
	"github.com/whalemap/whalemap/internal/store"
	"github.com/whalemap/whalemap/internal/store/sqlite"
	"github.com/whalemap/whalemap/internal/vault"
	"github.com/whalemap/whalemap/internal/worker"
)

type stubHub struct{}

func (stubHub) Login(ctx context.Context, username, pat string) (string, error) {
	return "hub-jwt", nil
}

func (stubHub) ValidateUser(ctx context.Context, username string) error { return nil }

func (stubHub) FetchRepositories(ctx context.Context, username, token string) ([]registry.Repository, error) {
	return []registry.Repository{{Name: "app", LastUpdated: "2026-08-10T08:19:30.340959Z"}}, nil
}

func (stubHub) FetchTags(ctx context.Context, username, repo, token string) ([]registry.Tag, error) {
	return []registry.Tag{{Name: "latest", TagLastPushed: "2026-08-10T08:19:30.340959Z"}}, nil
}

type testServer struct {
	srv   *httptest.Server
	store store.Store
	pool  *worker.Pool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	v, err := vault.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	pool := worker.NewPool(2, zerolog.Nop())
	syncer := services.NewSyncService(st, stubHub{}, v, zerolog.Nop())
	accounts := services.NewAccountService(st, stubHub{}, v, syncer, pool, zerolog.Nop())
	activity := services.NewActivityService(st, zerolog.Nop())

	router := NewRouter(
		NewAccountHandler(accounts),
		NewHeatmapHandler(activity),
		NewHealthHandler(st),
		zerolog.Nop(),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: st, pool: pool}
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, &buf)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (ts *testServer) connect(t *testing.T, userID, username string) {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/docker/connect", userID, map[string]string{
		"docker_username": username,
		"access_token":    "dckr_pat_123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	// Let the fire-and-forget first sync finish so reads are stable.
	require.NoError(t, ts.pool.Shutdown(context.Background()))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConnectRequiresUser(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/docker/connect", "", map[string]string{
		"docker_username": "alice",
		"access_token":    "tok",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectAndGetAccount(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "u1", "alice")

	resp := ts.do(t, http.MethodGet, "/api/docker/account", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Account struct {
			DockerUsername string `json:"docker_username"`
			IsActive       bool   `json:"is_active"`
			SyncInProgress bool   `json:"sync_in_progress"`
			LastSyncError  string `json:"last_sync_error"`
		} `json:"account"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "alice", body.Account.DockerUsername)
	require.True(t, body.Account.IsActive)
	require.False(t, body.Account.SyncInProgress)
	require.Empty(t, body.Account.LastSyncError)
}

func TestGetAccountWithoutConnection(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/docker/account", "stranger", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestConnectConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "owner", "alice")

	resp := ts.do(t, http.MethodPost, "/api/docker/connect", "intruder", map[string]string{
		"docker_username": "alice",
		"access_token":    "tok",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestManualSyncConflictWhileRunning(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "u1", "alice")

	account, err := ts.store.Accounts().GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	started, err := ts.store.Accounts().BeginSync(context.Background(), account.ID)
	require.NoError(t, err)
	require.True(t, started)

	resp := ts.do(t, http.MethodPost, "/api/docker/sync", "u1", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDisconnect(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "u1", "alice")

	resp := ts.do(t, http.MethodDelete, "/api/docker/account", "u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/docker/account", "u1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActivityJSON(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "u1", "alice")

	resp := ts.do(t, http.MethodGet, "/api/heatmap/alice.json?days=30", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "public, max-age=7200", resp.Header.Get("Cache-Control"))

	var report struct {
		Username string `json:"username"`
		Days     int    `json:"days"`
		Activity []struct {
			Date string `json:"date"`
		} `json:"activity"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Equal(t, "alice", report.Username)
	require.Equal(t, 30, report.Days)
	require.Len(t, report.Activity, 30)
}

func TestActivityJSONUnknownUser(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/heatmap/ghost.json", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenderSVG(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "u1", "alice")

	resp := ts.do(t, http.MethodGet, "/api/heatmap/alice.svg?days=30&theme=nord", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	require.Equal(t, "public, max-age=7200", resp.Header.Get("Cache-Control"))
}

func TestRenderSVGUnknownTheme(t *testing.T) {
	ts := newTestServer(t)
	ts.connect(t, "u1", "alice")

	resp := ts.do(t, http.MethodGet, "/api/heatmap/alice.svg?theme=neon-zebra", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestThemeCatalog(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/heatmap/themes", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Themes []struct {
			ID string `json:"id"`
		} `json:"themes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Themes, 16)
	require.Equal(t, "github", body.Themes[0].ID)
}
